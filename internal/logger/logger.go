// Package logger is a ctx-first wrapper around log/slog that stamps every
// record with the active trace and span IDs.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"news-impact-engine/internal/trace"
)

var (
	globalLogger *slog.Logger
	logLevel     = slog.LevelInfo
	// Adds the calling function, file and line to every record.
	withSource bool
)

// Config holds logging configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // json or text
	Source bool
}

// Init configures the global logger from LOG_LEVEL, LOG_FORMAT and LOG_DETAILED.
func Init() error {
	return InitWithConfig(Config{
		Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
		Source: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	})
}

func InitWithConfig(cfg Config) error {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return err
	}
	logLevel = level
	withSource = cfg.Source

	// Source is added by logWithTrace so it points at the real caller.
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Debug(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelDebug, msg, 2, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, 2, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, 2, args...)
}

// ErrorWithErr logs err and marks the active span as failed.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	logWithTrace(ctx, slog.LevelError, msg, 2, append([]any{"error", err}, args...)...)
}

// InfoSkip logs an info message attributed to a caller further up the stack
func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2+skip, args...)
}

// ErrorWithErrSkip is ErrorWithErr attributed to a caller further up the stack
func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	logWithTrace(ctx, slog.LevelError, msg, 2+skip, append([]any{"error", err}, args...)...)
}

// logWithTrace emits one record. skip counts the frames between
// runtime.Caller and the code that called the public helper.
func logWithTrace(ctx context.Context, level slog.Level, msg string, skip int, args ...any) {
	l := globalLogger
	if l == nil {
		l = slog.Default()
	}
	if !l.Enabled(ctx, level) {
		return
	}

	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}

	if withSource {
		if pc, file, line, ok := runtime.Caller(skip); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				args = append(args, "source", slog.GroupValue(
					slog.String("function", fn.Name()),
					slog.String("file", file),
					slog.Int("line", line),
				))
			}
		}
	}

	l.Log(ctx, level, msg, args...)
}

func recordSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func addSpanEvent(ctx context.Context, name string, fields ...any) {
	span := oteltrace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, oteltrace.WithAttributes(attrsOf(fields)...))
	}
}

// attrsOf converts key/value pairs to span attributes. Pairs with a
// non-string key or an unsupported value type are dropped.
func attrsOf(fields []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		case fmt.Stringer:
			attrs = append(attrs, attribute.String(key, v.String()))
		}
	}
	return attrs
}

// OperationTimer measures one operation and closes its span.
type OperationTimer struct {
	ctx    context.Context
	span   oteltrace.Span
	start  time.Time
	fields []any
}

func StartOperation(ctx context.Context, operation string, fields ...any) *OperationTimer {
	ctx, span := trace.StartSpan(ctx, operation)
	span.SetAttributes(attrsOf(fields)...)

	fields = append([]any{"operation", operation}, fields...)
	Debug(ctx, "Operation started", fields...)

	return &OperationTimer{ctx: ctx, span: span, start: time.Now(), fields: fields}
}

// Context returns the context carrying the operation's span.
func (ot *OperationTimer) Context() context.Context {
	return ot.ctx
}

func (ot *OperationTimer) End(additionalFields ...any) {
	elapsed := time.Since(ot.start).Milliseconds()
	if ot.span.IsRecording() {
		ot.span.SetAttributes(attribute.Int64("duration_ms", elapsed))
		ot.span.SetAttributes(attrsOf(additionalFields)...)
		ot.span.SetStatus(codes.Ok, "completed")
		ot.span.End()
	}

	fields := append(append([]any{}, ot.fields...), "duration_ms", elapsed)
	logWithTrace(ot.ctx, slog.LevelInfo, "Operation completed", 2, append(fields, additionalFields...)...)
}

func (ot *OperationTimer) EndWithError(err error, additionalFields ...any) {
	elapsed := time.Since(ot.start).Milliseconds()
	if ot.span.IsRecording() {
		ot.span.SetAttributes(attribute.Int64("duration_ms", elapsed))
		recordSpanError(ot.ctx, err)
		ot.span.End()
	}

	fields := append(append([]any{}, ot.fields...), "duration_ms", elapsed, "error", err)
	logWithTrace(ot.ctx, slog.LevelError, "Operation failed", 2, append(fields, additionalFields...)...)
}

// Recovery logs a stage failure that was absorbed by a fallback path.
func Recovery(ctx context.Context, stage, cause, fallback string, fields ...any) {
	addSpanEvent(ctx, "stage_recovery", "stage", stage, "cause", cause, "fallback", fallback)

	allFields := append([]any{
		"type", "RECOVERY",
		"stage", stage,
		"cause", cause,
		"fallback", fallback,
	}, fields...)
	logWithTrace(ctx, slog.LevelWarn, "Stage recovered", 2, allFields...)
}

// Impact logs a directional impact prediction.
func Impact(ctx context.Context, articleID, marketID, direction string, confidence float64, horizon string, fields ...any) {
	core := []any{
		"article_id", articleID,
		"market_id", marketID,
		"direction", direction,
		"confidence", confidence,
		"horizon", horizon,
	}
	addSpanEvent(ctx, "impact_predicted", core...)

	allFields := append(append([]any{"type", "IMPACT"}, core...), fields...)
	logWithTrace(ctx, slog.LevelInfo, "Impact predicted", 2, allFields...)
}
