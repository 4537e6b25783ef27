package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del stamper. Viven en un paquete aparte para que store, stamper y
// http puedan instrumentarse sin ciclos de import.

var (
	StampsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stamper_stamps_total",
		Help: "Stamps producidos, por modo y resultado",
	}, []string{"mode", "result"})

	RotationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stamper_rotations_total",
		Help: "Operaciones de ciclo de vida de claves (init, rotate, commit, rollback, reset, clear)",
	}, []string{"op", "result"})

	StoreOpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stamper_store_op_duration_seconds",
		Help:    "Latencia de operaciones del key store",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"driver", "op"})
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObserveStamp cuenta un stamp.
func ObserveStamp(mode string, err error) {
	StampsTotal.WithLabelValues(mode, result(err)).Inc()
}

// ObserveLifecycle cuenta una operación del manager.
func ObserveLifecycle(op string, err error) {
	RotationsTotal.WithLabelValues(op, result(err)).Inc()
}

// ObserveStoreOp registra la duración de una operación de store iniciada en start.
func ObserveStoreOp(driver, op string, start time.Time) {
	StoreOpDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
}

// Register registers the stamper collectors on reg (or the default registry if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{StampsTotal, RotationsTotal, StoreOpDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
