package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomJSONFormatter writes one JSON object per entry with the app name and
// version stamped on every line.
type CustomJSONFormatter struct {
	TimestampFormat string
	PrettyPrint     bool
	AppName         string
	Version         string
}

type CustomTextFormatter struct {
	TimestampFormat string
	ForceColors     bool
	DisableColors   bool
	AppName         string
}

func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+6)
	for k, v := range entry.Data {
		switch v := v.(type) {
		case error:
			data[k] = v.Error()
		default:
			data[k] = v
		}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339
	}
	data["timestamp"] = entry.Time.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}
	if entry.HasCaller() {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	encoder := json.NewEncoder(b)
	if f.PrettyPrint {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON: %w", err)
	}

	return b.Bytes(), nil
}

var levelColors = map[logrus.Level]string{
	logrus.PanicLevel: "\033[31m",
	logrus.FatalLevel: "\033[31m",
	logrus.ErrorLevel: "\033[31m",
	logrus.WarnLevel:  "\033[33m",
	logrus.InfoLevel:  "\033[36m",
	logrus.DebugLevel: "\033[37m",
}

const colorReset = "\033[0m"

func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006-01-02 15:04:05"
	}

	level := strings.ToUpper(entry.Level.String())
	if !f.DisableColors && (f.ForceColors || isTerminal()) {
		level = levelColors[entry.Level] + level + colorReset
	}
	fmt.Fprintf(b, "%s [%s] ", entry.Time.Format(timestampFormat), level)

	if f.AppName != "" {
		fmt.Fprintf(b, "[%s] ", f.AppName)
	}
	if entry.HasCaller() {
		fmt.Fprintf(b, "[%s:%d] ", entry.Caller.File, entry.Caller.Line)
	}
	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func isTerminal() bool {
	return false
}

// AuditLogger records admin changes to the catalog, promos and orders.
type AuditLogger struct {
	logger *Logger
}

func NewAuditLogger(logger *Logger) *AuditLogger {
	return &AuditLogger{logger: logger.WithField("type", "audit")}
}

func (a *AuditLogger) LogAction(action, resource string, actorID *primitive.ObjectID, details map[string]interface{}) {
	fields := map[string]interface{}{
		"action":    action,
		"resource":  resource,
		"timestamp": time.Now().UTC(),
	}

	if actorID != nil {
		fields["actor_id"] = actorID.Hex()
	}

	for k, v := range details {
		fields[k] = v
	}

	a.logger.WithFields(fields).Info("Audit log entry")
}

func (a *AuditLogger) LogAuthEvent(eventType string, customerID *primitive.ObjectID, ipAddress, userAgent string, success bool) {
	fields := map[string]interface{}{
		"event_type": eventType,
		"ip_address": ipAddress,
		"user_agent": userAgent,
		"success":    success,
	}

	if customerID != nil {
		fields["customer_id"] = customerID.Hex()
	}

	a.logger.WithFields(fields).Info("Authentication event logged")
}
