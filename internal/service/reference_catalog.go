package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

// ReferenceCatalog serves billing and diagnostic codes from memory.
type ReferenceCatalog interface {
	BillingCode(code string) (entity.BillingCode, bool)
	DiagnosticCode(code string) (entity.DiagnosticCode, bool)
	SearchBillingCodes(query string) []entity.BillingCode
	SearchDiagnosticCodes(query string) []entity.DiagnosticCode
}

// Catalog is loaded at startup and can be refreshed without a restart.
type Catalog struct {
	mu         sync.RWMutex
	billing    map[string]entity.BillingCode
	diagnostic map[string]entity.DiagnosticCode

	txManager repository.TxManager
	refRepo   repository.ReferenceRepository
	log       *logrus.Logger
}

func NewCatalog(txManager repository.TxManager, refRepo repository.ReferenceRepository, log *logrus.Logger) *Catalog {
	return &Catalog{
		billing:    map[string]entity.BillingCode{},
		diagnostic: map[string]entity.DiagnosticCode{},
		txManager:  txManager,
		refRepo:    refRepo,
		log:        log,
	}
}

// NewStaticCatalog builds a catalog from fixed lists.
func NewStaticCatalog(billing []entity.BillingCode, diagnostic []entity.DiagnosticCode) *Catalog {
	c := &Catalog{}
	c.replace(billing, diagnostic)
	return c
}

// Load reads both code tables. It replaces the current contents only when both reads succeed.
func (c *Catalog) Load(ctx context.Context) error {
	db := c.txManager.DB(ctx)

	billing, err := c.refRepo.FindBillingCodes(db)
	if err != nil {
		return err
	}
	diagnostic, err := c.refRepo.FindDiagnosticCodes(db)
	if err != nil {
		return err
	}

	c.replace(billing, diagnostic)
	c.log.Infof("Reference catalog loaded: %d billing codes, %d diagnostic codes", len(billing), len(diagnostic))
	return nil
}

func (c *Catalog) replace(billing []entity.BillingCode, diagnostic []entity.DiagnosticCode) {
	b := make(map[string]entity.BillingCode, len(billing))
	for _, code := range billing {
		b[strings.ToUpper(code.Code)] = code
	}
	d := make(map[string]entity.DiagnosticCode, len(diagnostic))
	for _, code := range diagnostic {
		d[strings.ToUpper(code.Code)] = code
	}

	c.mu.Lock()
	c.billing = b
	c.diagnostic = d
	c.mu.Unlock()
}

func (c *Catalog) BillingCode(code string) (entity.BillingCode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bc, ok := c.billing[strings.ToUpper(strings.TrimSpace(code))]
	return bc, ok
}

func (c *Catalog) DiagnosticCode(code string) (entity.DiagnosticCode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dc, ok := c.diagnostic[strings.ToUpper(strings.TrimSpace(code))]
	return dc, ok
}

// SearchBillingCodes matches code prefix or description substring, case-insensitive.
// An empty query returns every code. Results are ordered by code.
func (c *Catalog) SearchBillingCodes(query string) []entity.BillingCode {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	out := make([]entity.BillingCode, 0, len(c.billing))
	for _, bc := range c.billing {
		if matches(q, bc.Code, bc.Description) {
			out = append(out, bc)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (c *Catalog) SearchDiagnosticCodes(query string) []entity.DiagnosticCode {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	out := make([]entity.DiagnosticCode, 0, len(c.diagnostic))
	for _, dc := range c.diagnostic {
		if matches(q, dc.Code, dc.Description) {
			out = append(out, dc)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func matches(q, code, description string) bool {
	if q == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(code), q) || strings.Contains(strings.ToLower(description), q)
}
