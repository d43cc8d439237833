package forum

import "time"

// SetNow pins the clock used for new posts and comments and returns a restore func.
func SetNow(f func() time.Time) func() {
	nowFunc = f
	return func() { nowFunc = time.Now }
}
