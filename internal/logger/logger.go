package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
	LevelFatal   = slog.Level(12)
)

const defaultServiceName = "modelbench"

var (
	Logger       *slog.Logger
	sampleRate   atomic.Int32
	programLevel = new(slog.LevelVar)
	shutdownFunc func(context.Context) error // nil unless OTEL is enabled
)

// Counters are incremented on every call, whether or not the log line is sampled
var (
	TotalErrors         atomic.Int64
	TotalWarnings       atomic.Int64
	Total4xxErrors      atomic.Int64
	Total5xxErrors      atomic.Int64
	RejectedEvaluations atomic.Int64
	GenerationFailures  atomic.Int64
	StoreFailures       atomic.Int64
)

func init() {
	sampleRate.Store(1)
	programLevel.Set(slog.LevelInfo)
	setupJSONLogging(os.Stdout)
}

// Options configures Setup
type Options struct {
	Level       string
	SampleRate  int
	OTELEnabled bool
	ServiceName string

	// Output receives JSON logs; nil means stdout
	Output io.Writer
}

// OptionsFromEnv reads LOG_LEVEL, LOG_SAMPLE_RATE, OTEL_ENABLED and OTEL_SERVICE_NAME
func OptionsFromEnv() Options {
	opts := Options{
		Level:       os.Getenv("LOG_LEVEL"),
		OTELEnabled: strings.EqualFold(os.Getenv("OTEL_ENABLED"), "true"),
		ServiceName: os.Getenv("OTEL_SERVICE_NAME"),
	}
	if s := os.Getenv("LOG_SAMPLE_RATE"); s != "" {
		if rate, err := strconv.Atoi(s); err == nil {
			opts.SampleRate = rate
		}
	}
	return opts
}

// Setup replaces the default JSON logger according to opts. When OTEL is
// requested but the exporter cannot be created, JSON logging is kept.
func Setup(ctx context.Context, opts Options) error {
	if opts.Level != "" {
		level, err := ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		programLevel.Set(level)
	}
	if opts.SampleRate > 0 {
		sampleRate.Store(int32(opts.SampleRate))
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if !opts.OTELEnabled {
		setupJSONLogging(out)
		return nil
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	shutdown, err := setupOTELLogging(ctx, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup OTEL logging, falling back to JSON: %v\n", err)
		setupJSONLogging(out)
		return nil
	}
	shutdownFunc = shutdown
	return nil
}

func setupJSONLogging(w io.Writer) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: programLevel})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func setupOTELLogging(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	handler := &levelHandler{
		level: programLevel,
		handler: otelslog.NewHandler(
			serviceName,
			otelslog.WithLoggerProvider(loggerProvider),
		),
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	return loggerProvider.Shutdown, nil
}

// levelHandler applies programLevel to a handler that has no level of its own
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// Shutdown flushes the OTEL exporter, if one is installed
func Shutdown(ctx context.Context) error {
	if shutdownFunc != nil {
		return shutdownFunc(ctx)
	}
	return nil
}

func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

func GetLevel() slog.Level {
	return programLevel.Level()
}

// ParseLevel converts a level name to slog.Level
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// With returns a child logger carrying args, e.g. a component name
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

// shouldSample returns true for 1 out of every sampleRate calls on average
func shouldSample() bool {
	rate := sampleRate.Load()
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

func Trace(msg string, args ...any) {
	Logger.Log(context.Background(), LevelTrace, msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs with sampling; TotalWarnings always counts
func Warn(msg string, args ...any) {
	TotalWarnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error logs with sampling; TotalErrors always counts
func Error(msg string, args ...any) {
	TotalErrors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// Fatal logs, flushes OTEL and exits
func Fatal(msg string, args ...any) {
	Logger.Log(context.Background(), LevelFatal, msg, args...)
	if shutdownFunc != nil {
		_ = shutdownFunc(context.Background())
	}
	os.Exit(1)
}

// WarnHttp4xx counts a client error response
func WarnHttp4xx() {
	Total4xxErrors.Add(1)
	TotalWarnings.Add(1)
}

// ErrorHttp5xx counts a server error response
func ErrorHttp5xx() {
	Total5xxErrors.Add(1)
	TotalErrors.Add(1)
}

// WarnRejectedEvaluation logs an evaluation refused before scoring,
// for an unknown category or an invalid expectation
func WarnRejectedEvaluation(category string, err error) {
	RejectedEvaluations.Add(1)
	Warn("evaluation rejected", "category", category, "error", err)
}

// WarnGenerationFailed logs a generator error for one test
func WarnGenerationFailed(runID, test string, err error) {
	GenerationFailures.Add(1)
	Warn("model generation failed", "runId", runID, "test", test, "error", err)
}

// ErrorStore logs a result store failure
func ErrorStore(op string, err error) {
	StoreFailures.Add(1)
	Error("result store failure", "op", op, "error", err)
}

// Counters returns a snapshot of all counters, keyed by name
func Counters() map[string]int64 {
	return map[string]int64{
		"errors":              TotalErrors.Load(),
		"warnings":            TotalWarnings.Load(),
		"http4xx":             Total4xxErrors.Load(),
		"http5xx":             Total5xxErrors.Load(),
		"rejectedEvaluations": RejectedEvaluations.Load(),
		"generationFailures":  GenerationFailures.Load(),
		"storeFailures":       StoreFailures.Load(),
	}
}
