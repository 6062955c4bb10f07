package classify

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"

	"github.com/xkilldash9x/streamsift/internal/config"
)

// FuzzClassify throws arbitrary byte soup at the classifier. The goal is
// survival plus the structural invariants every accepted candidate must hold.
func FuzzClassify(f *testing.F) {
	f.Add([]byte("https://cdn.example.com/live/master.m3u8?token=abc"))
	f.Add([]byte("https://adtrack.example.com/beacon?x=1"))
	f.Add([]byte("https://player.example.com/embed?url=https%3A%2F%2Fcdn%2Fmaster.m3u8"))
	f.Add([]byte("http://cdn.example.com/seg0001.ts"))
	f.Add([]byte("://\x00%%%"))

	classifier := New(config.NewDefaultConfig().Capture)

	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzConsumer := fuzz.NewConsumer(data)
		rawURL, err := fuzzConsumer.GetString()
		if err != nil {
			return
		}
		contentType, _ := fuzzConsumer.GetString()

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("classify panicked on %q: %v", rawURL, r)
			}
		}()

		cand, ok := classifier.Classify(rawURL, Hint{ContentType: contentType})
		if !ok {
			return
		}
		if cand.NormalizedKey == "" {
			t.Errorf("accepted candidate with empty normalized key for %q", rawURL)
		}
		if cand.Kind < KindUnknown || cand.Kind > KindMaster {
			t.Errorf("accepted candidate with out-of-range kind %d for %q", cand.Kind, rawURL)
		}
		if cand.URL == "" {
			t.Errorf("accepted candidate lost its URL payload for %q", rawURL)
		}
	})
}
