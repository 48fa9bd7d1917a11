// Package metrics define y registra las métricas Prometheus de la API.
// Es la única fuente de verdad de nombres, labels y textos de ayuda.
//
// Las métricas usan el registry por defecto vía promauto, así que basta
// con importar el paquete y exponer /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "viba"

// ── Autenticación ─────────────────────────────────────────────────────────────

// LoginsTotal cuenta intentos de login.
// Label:
//   - resultado: "ok", "credenciales_invalidas", "bloqueado", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total de intentos de login, por resultado.",
	},
	[]string{"resultado"},
)

// TwoFAVerificationsTotal cuenta verificaciones de código 2FA.
// Label:
//   - resultado: "ok", "codigo_invalido", "bloqueado", "error"
var TwoFAVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verificaciones_2fa_total",
		Help:      "Total de verificaciones de código 2FA, por resultado.",
	},
	[]string{"resultado"},
)

// ── Ventas e inventario ───────────────────────────────────────────────────────

// VentasTotal cuenta intentos de venta.
// Label:
//   - resultado: "ok", "inventario_insuficiente", "producto_no_reconocido", "error"
var VentasTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ventas_total",
		Help:      "Total de intentos de venta, por resultado.",
	},
	[]string{"resultado"},
)

// UnidadesVendidasTotal cuenta unidades de inventario vendidas.
// Label:
//   - producto: nombre del corte (ej. "ribeye")
var UnidadesVendidasTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unidades_vendidas_total",
		Help:      "Total de unidades de inventario vendidas, por producto.",
	},
	[]string{"producto"},
)

// OrdenesCompletadasTotal cuenta órdenes de compra completadas (recibidas).
var OrdenesCompletadasTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ordenes_completadas_total",
		Help:      "Total de órdenes de compra completadas.",
	},
)
