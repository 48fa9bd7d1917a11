package entity

import "time"

// Tipos de notificación generados por el flujo de órdenes.
const (
	NotifOrden         = "orden"
	NotifOrdenRecibida = "orden_recibida"
)

// Notification aviso para un usuario, creado como efecto lateral de las
// operaciones de órdenes.
type Notification struct {
	ID        int64
	Mensaje   string
	Tipo      string
	Fecha     time.Time
	IDUsuario string
}
