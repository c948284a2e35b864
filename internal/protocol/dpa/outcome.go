package dpa

// Outcome 响应载荷的二选一结果：rcode 为 OK 时持有解码后的值，否则只有状态码
type Outcome[T any] struct {
	status ResponseCode
	value  T
	ok     bool
}

func okOutcome[T any](status ResponseCode, v T) Outcome[T] {
	return Outcome[T]{status: status, value: v, ok: true}
}

func failedOutcome[T any](status ResponseCode) Outcome[T] {
	return Outcome[T]{status: status}
}

// Get 返回结果值，rcode 非 OK 时第二个返回值为 false 且值为零值
func (o Outcome[T]) Get() (T, bool) {
	if !o.ok {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Status 原始响应码（含异步标志）
func (o Outcome[T]) Status() ResponseCode { return o.status }

func (o Outcome[T]) OK() bool { return o.ok }

// Match 按结果分支执行
func (o Outcome[T]) Match(onOK func(T), onErr func(ResponseCode)) {
	if o.ok {
		if onOK != nil {
			onOK(o.value)
		}
		return
	}
	if onErr != nil {
		onErr(o.status)
	}
}
