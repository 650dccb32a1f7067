package logs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const errorLogFileSizeMax = 1024 * 1024

type logFormatter func(entry *log.Entry) ([]byte, error)

func (f logFormatter) Format(entry *log.Entry) ([]byte, error) {
	return f(entry)
}

func init() {
	log.SetLevel(log.DebugLevel)
	log.SetReportCaller(true)
	log.SetFormatter(logFormatter(func(entry *log.Entry) ([]byte, error) {
		var b *bytes.Buffer
		if entry.Buffer != nil {
			b = entry.Buffer
		} else {
			b = &bytes.Buffer{}
		}

		b.WriteString(entry.Time.Format(time.RFC3339))
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(entry.Level.String()))

		b.WriteByte(' ')
		if caller, ok := entry.Data["caller"]; ok {
			b.WriteString(fmt.Sprint(caller))
		} else if entry.HasCaller() {
			b.WriteString(entry.Caller.Function)
		} else {
			b.WriteByte('-')
		}

		b.WriteByte(' ')
		b.WriteString(entry.Message)

		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			if k == "caller" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			value := entry.Data[k]
			stringVal, ok := value.(string)
			if !ok {
				stringVal = fmt.Sprint(value)
			}
			b.WriteString(stringVal)
		}

		b.WriteByte('\n')
		return b.Bytes(), nil
	}))
}

var logFilePath string

// InitLoggerFile mirrors all log output into a file inside the app's files
// directory so the embedding can attach it to bug reports.
func InitLoggerFile(filesDir string, fileName string) {
	logFile, err := os.Create(path.Join(filesDir, fileName))
	if err != nil {
		log.WithError(err).Error("file for logs was not created")
		return
	}
	logFilePath = logFile.Name()
	log.Infof("file for logs was created(%s)", logFilePath)
	log.SetOutput(io.MultiWriter(os.Stderr, bufio.NewWriter(logFile)))
}

// PreserveLogFile copies the tail of the current log file aside, so a crash
// on the next launch does not truncate the evidence.
func PreserveLogFile(filesDir string, fileName string) {
	if len(logFilePath) < 1 {
		log.Debug("cannot preserve log; log file path is not defined")
		return
	}
	errorLogPath := path.Join(filesDir, fileName)
	log.Infof("preserve log file %s", errorLogPath)
	if err := copyFileTail(logFilePath, errorLogPath, errorLogFileSizeMax); err != nil {
		log.WithError(err).Error("cannot preserve log file")
	}
}

func GetLogFilePath() string {
	return logFilePath
}

type Logger interface {
	Trace(message string)
	Debug(message string)
	Info(message string)
	Warn(message string)
	Error(message string)
}

type loggerStruct struct {
	logEntry *log.Entry
}

func (l *loggerStruct) Trace(message string) { l.logEntry.Trace(message) }
func (l *loggerStruct) Debug(message string) { l.logEntry.Debug(message) }
func (l *loggerStruct) Info(message string)  { l.logEntry.Info(message) }
func (l *loggerStruct) Warn(message string)  { l.logEntry.Warn(message) }
func (l *loggerStruct) Error(message string) { l.logEntry.Error(message) }

func New(caller string) Logger {
	return &loggerStruct{
		logEntry: log.WithField("caller", caller),
	}
}

func copyFileTail(src string, dst string, maxSize int64) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	srcFileStat, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if maxSize > 0 && srcFileStat.Size() > maxSize {
		if _, err := sourceFile.Seek(srcFileStat.Size()-maxSize, io.SeekStart); err != nil {
			return err
		}
	}

	_, err = io.Copy(dstFile, sourceFile)
	return err
}
