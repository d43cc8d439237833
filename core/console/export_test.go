package console

import "time"

// SetNow pins the clock used for new content and returns a restore func.
func SetNow(f func() time.Time) func() {
	nowFunc = f
	return func() { nowFunc = time.Now }
}
