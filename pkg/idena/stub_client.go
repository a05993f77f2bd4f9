package idena

import (
	"context"
	"net/http"
	"strings"
)

// StubClient is a canned-data implementation of IClient for testing the
// collector and generator without a live indexer.
type StubClient struct {
	LastEpochInfo *EpochInfo
	Epochs        map[int64]*EpochInfo
	Flags         map[int64][]string
	Txs           map[int64][]Transaction
	Bad           map[int64]map[string]struct{}
	Summaries     map[string]*ValidationSummary
	Identities    map[string]*Identity
	Rewards       map[string][]Reward
}

// NewStubClient creates an empty stub client
func NewStubClient() *StubClient {
	return &StubClient{
		Epochs:     make(map[int64]*EpochInfo),
		Flags:      make(map[int64][]string),
		Txs:        make(map[int64][]Transaction),
		Bad:        make(map[int64]map[string]struct{}),
		Summaries:  make(map[string]*ValidationSummary),
		Identities: make(map[string]*Identity),
		Rewards:    make(map[string][]Reward),
	}
}

var _ IClient = (*StubClient)(nil)

func (s *StubClient) SetHTTPClient(*http.Client) {}

func (s *StubClient) LastEpoch(ctx context.Context) (*EpochInfo, error) {
	if s.LastEpochInfo == nil {
		return nil, ErrNotFound
	}
	return s.LastEpochInfo, nil
}

func (s *StubClient) Epoch(ctx context.Context, epoch int64) (*EpochInfo, error) {
	info, ok := s.Epochs[epoch]
	if !ok {
		return nil, ErrNotFound
	}
	return info, nil
}

func (s *StubClient) BlockFlags(ctx context.Context, height int64) ([]string, error) {
	return s.Flags[height], nil
}

func (s *StubClient) BlockTxs(ctx context.Context, height int64) ([]Transaction, error) {
	return s.Txs[height], nil
}

func (s *StubClient) BadAuthors(ctx context.Context, epoch int64) (map[string]struct{}, error) {
	bad := s.Bad[epoch]
	if bad == nil {
		bad = make(map[string]struct{})
	}
	return bad, nil
}

func (s *StubClient) ValidationSummary(ctx context.Context, epoch int64, address string) (*ValidationSummary, error) {
	summary, ok := s.Summaries[strings.ToLower(address)]
	if !ok {
		return nil, ErrNotFound
	}
	return summary, nil
}

func (s *StubClient) Identity(ctx context.Context, address string) (*Identity, error) {
	identity, ok := s.Identities[strings.ToLower(address)]
	if !ok {
		return nil, ErrNotFound
	}
	return identity, nil
}

func (s *StubClient) IdentityRewards(ctx context.Context, epoch int64, address string) ([]Reward, error) {
	return s.Rewards[strings.ToLower(address)], nil
}
