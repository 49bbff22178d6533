package gpio

// Latch holds the last level successfully read from a Reader. It implements
// button.Line so the engine only ever sees a plain bool; read errors stay
// with the caller of Sample.
type Latch struct {
	r     Reader
	level bool
}

// NewLatch returns a latch over r that reports initial until the first
// successful Sample.
func NewLatch(r Reader, initial bool) *Latch {
	return &Latch{r: r, level: initial}
}

// Sample reads the line once. On error the previous level is kept.
func (l *Latch) Sample() error {
	v, err := l.r.Read()
	if err != nil {
		return err
	}
	l.level = v
	return nil
}

// Level returns the last sampled level.
func (l *Latch) Level() bool {
	return l.level
}
