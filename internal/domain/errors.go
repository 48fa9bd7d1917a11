package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// Flujo de login / 2FA.
	ErrCredencialesInvalidas = errors.New("credenciales incorrectas")
	ErrCodigoInvalido        = errors.New("código incorrecto")
	ErrCodigoRequerido       = errors.New("código 2FA requerido")
	ErrEtapaInvalida         = errors.New("etapa de sesión inválida para esta operación")
	ErrEmailRequerido        = errors.New("email requerido")
	ErrDemasiadosIntentos    = errors.New("demasiados intentos, espera antes de reintentar")

	// Ventas e inventario.
	ErrInventarioInsuficiente = errors.New("no hay suficiente inventario para completar la venta")
	ErrUnidadesInsuficientes  = errors.New("no hay suficientes unidades vendidas en esta venta")
	ErrProductoNoReconocido   = errors.New("producto no reconocido")
)
