package chromedp_crawler

import (
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
}

// Agent hands out the identity each new tab presents.
type Agent struct {
	userAgents []string
	mu         sync.Mutex
	rnd        *rand.Rand
}

// NewAgent rotates over userAgents, or a built-in desktop Chrome list when empty.
func NewAgent(userAgents []string) *Agent {
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}
	return &Agent{
		userAgents: userAgents,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// UserAgent returns a random user agent string.
func (a *Agent) UserAgent() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userAgents[a.rnd.Intn(len(a.userAgents))]
}

// Headers are sent with every request of a tab.
func (a *Agent) Headers() network.Headers {
	return network.Headers{
		"Accept-Language": "fr-FR,fr;q=0.9,en;q=0.5",
	}
}
