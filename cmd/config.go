package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "bouncer"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	watchDirKey           = "watch.dir"
	watchRecursiveKey     = "watch.recursive"
	watchDebounceDelayKey = "watch.debounce_delay"
	watchPollIntervalKey  = "watch.poll_interval"
	watchMaxPendingKey    = "watch.max_pending_changes"

	eventCapacityKey  = "queues.event_capacity"
	resultCapacityKey = "queues.result_capacity"

	ignorePatternsKey = "ignore.patterns"

	secretsEnabledKey   = "checkers.secrets.enabled"
	secretsFileTypesKey = "checkers.secrets.file_types"

	filesizeEnabledKey   = "checkers.filesize.enabled"
	filesizeFileTypesKey = "checkers.filesize.file_types"
	filesizeMaxSizeKey   = "checkers.filesize.max_file_size"

	consoleEnabledKey = "notifications.console.enabled"

	slackEnabledKey     = "notifications.slack.enabled"
	slackWebhookURLKey  = "notifications.slack.webhook_url"
	slackChannelKey     = "notifications.slack.channel"
	slackMinSeverityKey = "notifications.slack.min_severity"

	fileLogEnabledKey = "notifications.file_log.enabled"
	fileLogPathKey    = "notifications.file_log.path"

	defaultWatchDir           = "."
	defaultWatchRecursive     = true
	defaultDebounceDelay      = 2 * time.Second
	defaultPollInterval       = time.Second
	defaultMaxPendingChanges  = 5000
	defaultEventCapacity      = 1000
	defaultResultCapacity     = 1000
	defaultFilesizeMaxSize    = 1_000_000
	defaultSlackChannel       = "#bouncer"
	defaultSlackMinSeverity   = "warning"
	defaultFileLogPath        = ".bouncer/results.jsonl"

	envPrefix = "BOUNCER"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".bouncer.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var defaultIgnorePatterns = []string{
	".git", "node_modules", "__pycache__", ".pyc", "venv", ".env", ".bouncer",
}

var defaultSecretsFileTypes = []string{".py", ".js", ".ts", ".go", ".java"}

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(watchDirKey, defaultWatchDir)
	viper.SetDefault(watchRecursiveKey, defaultWatchRecursive)
	viper.SetDefault(watchDebounceDelayKey, defaultDebounceDelay)
	viper.SetDefault(watchPollIntervalKey, defaultPollInterval)
	viper.SetDefault(watchMaxPendingKey, defaultMaxPendingChanges)

	viper.SetDefault(eventCapacityKey, defaultEventCapacity)
	viper.SetDefault(resultCapacityKey, defaultResultCapacity)

	viper.SetDefault(ignorePatternsKey, defaultIgnorePatterns)

	viper.SetDefault(secretsEnabledKey, true)
	viper.SetDefault(secretsFileTypesKey, defaultSecretsFileTypes)

	viper.SetDefault(filesizeEnabledKey, true)
	viper.SetDefault(filesizeFileTypesKey, []string{})
	viper.SetDefault(filesizeMaxSizeKey, defaultFilesizeMaxSize)

	viper.SetDefault(consoleEnabledKey, true)

	viper.SetDefault(slackEnabledKey, false)
	viper.SetDefault(slackWebhookURLKey, "")
	viper.SetDefault(slackChannelKey, defaultSlackChannel)
	viper.SetDefault(slackMinSeverityKey, defaultSlackMinSeverity)

	viper.SetDefault(fileLogEnabledKey, true)
	viper.SetDefault(fileLogPathKey, defaultFileLogPath)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
