package registry

const (
	DefaultInitialCapacity = 16
	DefaultLoadFactor      = 0.75
)

// Option configures a Table.
type Option func(*options)

type options struct {
	capacity   int
	loadFactor float64
}

func defaultOptions() options {
	return options{
		capacity:   DefaultInitialCapacity,
		loadFactor: DefaultLoadFactor,
	}
}

// WithInitialCapacity sets the starting bucket count. Values below 1 are
// ignored.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLoadFactor sets the size/capacity ratio above which the table doubles.
// Values outside (0, 1] are ignored.
func WithLoadFactor(f float64) Option {
	return func(o *options) {
		if f > 0 && f <= 1 {
			o.loadFactor = f
		}
	}
}
