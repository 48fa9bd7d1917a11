package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// envelope sobre JSON común de todos los eventos de dominio publicados.
type envelope struct {
	Tipo    string      `json:"tipo"`
	Fecha   time.Time   `json:"fecha"`
	Payload interface{} `json:"payload"`
}

// Producer publica eventos de dominio en un topic Kafka de forma
// asíncrona: Publish encola sin bloquear el request y una goroutine
// escribe al broker. Implementa sales.EventPublisher y
// orders.EventPublisher.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     zerolog.Logger
}

// NewProducer construye el productor. buf dimensiona la cola interna; si
// se llena, los eventos nuevos se descartan (la venta ya está confirmada
// en BD, el evento es informativo).
func NewProducer(brokers []string, topic string, buf int, log zerolog.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start arranca la goroutine de escritura. Al cancelarse ctx se drenan
// los mensajes pendientes antes de cerrar el writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				close(p.inbox)
				for m := range p.inbox {
					p.write(m)
				}
				_ = p.w.Close()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error().Err(err).Str("tipo", string(m.Key)).Msg("error publicando evento")
	}
}

// Publish serializa el payload en el sobre común y lo encola. El tipo de
// evento es la key del mensaje, así los eventos de un mismo tipo caen en
// la misma partición.
func (p *Producer) Publish(_ context.Context, eventType string, payload interface{}) {
	value, err := json.Marshal(envelope{Tipo: eventType, Fecha: time.Now(), Payload: payload})
	if err != nil {
		p.log.Error().Err(err).Str("tipo", eventType).Msg("error serializando evento")
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: []byte(eventType), Value: value, Time: time.Now()}:
	default:
		p.log.Warn().Str("tipo", eventType).Msg("cola de eventos llena, evento descartado")
	}
}

// WaitClosed bloquea hasta que la goroutine de escritura termina.
func (p *Producer) WaitClosed() { <-p.closeCh }
