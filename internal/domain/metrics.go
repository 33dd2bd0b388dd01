package domain

type MetricsCollector interface {
	RecordCheck(CheckResult)
	RecordConfigApply(err error)
	RecordParseError()
	RecordServiceRestart(err error)
	RecordAptProxy(enabled bool)
	RecordCommand(name string, err error)
}
