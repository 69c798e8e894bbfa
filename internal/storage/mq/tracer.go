package mq

import (
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("internal/storage/mq")

	// kTracer follows the global propagator so run events carry the
	// trace started by the importer or image batch that emitted them.
	kTracer = kotel.NewTracer(kotel.TracerPropagator(otel.GetTextMapPropagator()))
)
