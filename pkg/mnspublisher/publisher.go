package mnspublisher

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/log"
	"github.com/cuemby/atomcas/pkg/metrics"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// Publisher owns one dedicated CAS connection and republishes the
// current WCID under Name whenever woken (spec §4.11). Its zero value
// is not usable; build with New.
type Publisher struct {
	Client   cas.Client
	Ws       *workspace.Manager
	Name     string
	Lifetime time.Duration
	TTL      time.Duration

	wake   chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Publisher. Call Start to begin its worker loop.
func New(client cas.Client, ws *workspace.Manager, name string, lifetime, ttl time.Duration) *Publisher {
	return &Publisher{
		Client:   client,
		Ws:       ws,
		Name:     name,
		Lifetime: lifetime,
		TTL:      ttl,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the worker goroutine.
func (p *Publisher) Start() {
	p.wg.Add(1)
	go p.run()
}

// Wake requests a republish of the current WCID (spec §4.11
// "publish_atomspace"). Non-blocking: if a wake is already pending,
// this is a no-op, since the worker will observe the latest WCID once
// it runs regardless of how many times it was woken meanwhile.
func (p *Publisher) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Stop clears the worker's keep-going flag and waits for it to exit
// (spec §4.11, "at backend shutdown the worker's keep-going flag is
// cleared and the condition variable is notified").
func (p *Publisher) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.wake:
			p.publishOnce()
		case <-p.stopCh:
			return
		}
	}
}

// publishOnce issues one MNS publish attempt. Failures are logged and
// swallowed (spec §4.11: "the MNS frequently rejects benign updates").
func (p *Publisher) publishOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wcid := p.Ws.Current()
	if err := p.Client.PublishName(ctx, p.Name, wcid, p.Lifetime, p.TTL); err != nil {
		metrics.MNSPublishTotal.WithLabelValues("failure").Inc()
		log.WithComponent("mnspublisher").Warn().Err(err).Str("wcid", wcid.String()).Msg("MNS publish failed, ignoring")
		return
	}
	metrics.MNSPublishTotal.WithLabelValues("success").Inc()
}
