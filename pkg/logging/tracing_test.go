package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupTracing_InstallsProviderAndLogsSDKErrors(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	shutdown := SetupTracing(context.Background(), logger, "orgchart-test", "127.0.0.1:4318")
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)

	otel.Handle(errors.New("exporter unreachable"))
	require.Contains(t, buf.String(), `"error":"exporter unreachable"`)
	require.Contains(t, buf.String(), `"component":"tracing"`)

	shutdown()
}
