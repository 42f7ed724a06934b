package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"

	"interviewer/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the process logger for the given mode.
// Development writes colored console lines at debug level, production writes
// JSON at info level and test mode only reports warnings and above.
func InitLogger(mode config.Mode) (*zap.Logger, *zap.SugaredLogger, error) {
	var (
		encoder zapcore.Encoder
		level   zapcore.Level
	)

	switch mode {
	case config.ModeProduction:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zapcore.InfoLevel
	case config.ModeTest:
		encoder = zapcore.NewConsoleEncoder(developmentEncoderConfig())
		level = zapcore.WarnLevel
	default:
		encoder = zapcore.NewConsoleEncoder(developmentEncoderConfig())
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, logger.Sugar(), nil
}

func developmentEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder // Colored levels
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder        // Readable timestamps
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder      // Short file paths
	return encoderConfig
}

// InitConfig loads the dotenv file and the process environment. Validation
// failures are printed field by field to stderr since no logger exists yet.
func InitConfig(envFile string, environ []string, stderr io.Writer) (*config.Config, error) {
	cfg, err := config.LoadFile(envFile, environ)
	if err == nil {
		return cfg, nil
	}

	var b strings.Builder
	if verr, ok := config.AsValidationError(err); ok {
		for _, field := range verr.Fields() {
			fmt.Fprintf(&b, "  %s: %s\n", field, strings.Join(verr.FieldErrors[field], ", "))
		}
	} else {
		fmt.Fprintf(&b, "  %v\n", err)
	}
	printFatal(stderr, "Invalid environment variables", strings.TrimRight(b.String(), "\n"))
	return nil, fmt.Errorf("failed to load config: %w", err)
}
