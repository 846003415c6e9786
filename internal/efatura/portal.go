package efatura

import (
	"sync"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
)

// PortalFactory returns the portal session used for one business
type PortalFactory interface {
	PortalFor(settings *model.Settings) (gib.Portal, error)
}

// PortalConfig layers the business's own credentials over base
func PortalConfig(base gib.Config, st *model.Settings) gib.Config {
	return base.Merge(gib.Config{
		Username:            st.GIBUsername,
		Password:            st.GIBPassword,
		TestMode:            st.GIBTestMode,
		PortalURL:           st.GIBPortalURL,
		CertificatePath:     st.CertificatePath,
		CertificatePassword: st.CertificatePassword,
	})
}

type pooledClient struct {
	cfg    gib.Config
	client *gib.Client
}

// ClientPool keeps one gib.Client per business and replaces it when the
// business's effective portal configuration changes
type ClientPool struct {
	base gib.Config
	opts []gib.ClientOption

	mu      sync.Mutex
	clients map[string]pooledClient
}

var _ PortalFactory = (*ClientPool)(nil)

func NewClientPool(base gib.Config, opts ...gib.ClientOption) *ClientPool {
	return &ClientPool{
		base:    base,
		opts:    opts,
		clients: make(map[string]pooledClient),
	}
}

func (p *ClientPool) PortalFor(st *model.Settings) (gib.Portal, error) {
	return p.Client(st)
}

// Client returns the concrete client for st
func (p *ClientPool) Client(st *model.Settings) (*gib.Client, error) {
	cfg := PortalConfig(p.base, st)
	if err := cfg.Validate(); err != nil {
		return nil, model.NewNotConfiguredError(err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pc, ok := p.clients[st.BusinessID]; ok && pc.cfg == cfg {
		return pc.client, nil
	}
	c := gib.NewClient(cfg, p.opts...)
	p.clients[st.BusinessID] = pooledClient{cfg: cfg, client: c}
	return c, nil
}
