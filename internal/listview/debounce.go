package listview

import "time"

// Debounce coalesces a rapidly-changing stream: a value is forwarded only
// once it has been stable for the quiet period. When the input channel
// closes, any still-pending value is flushed and the output closes.
func Debounce[T any](in <-chan T, quiet time.Duration) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)

		var (
			timer   *time.Timer
			timerC  <-chan time.Time
			pending T
			armed   bool
		)

		for {
			select {
			case v, ok := <-in:
				if !ok {
					if armed {
						out <- pending
					}
					return
				}
				pending = v
				armed = true
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(quiet)
				timerC = timer.C
			case <-timerC:
				if armed {
					out <- pending
					armed = false
				}
				timerC = nil
			}
		}
	}()

	return out
}
