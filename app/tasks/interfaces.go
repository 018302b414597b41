package tasks

// TaskSchedulerInterface is what the main application uses to drive
// background processing: start/stop the worker pool and push ad-hoc work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
