package worker

import "github.com/yomuhub/yomu/model"

// WorkPool is implemented by the upload and extract pools.
type WorkPool interface {
	Push(job model.Job)
}
