package application

import (
	"context"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
	"github.com/ericfisherdev/volt/internal/domain/tree"
)

// QueryService provides read-only projections of the vault. Reads never
// interleave with a VaultService mutation sharing the same Gate.
type QueryService struct {
	gate    *Gate
	groups  driven.GroupStore
	creds   driven.CredentialStore
	secrets driven.SecretStore
}

// NewQueryService creates a new QueryService with the required dependencies.
func NewQueryService(
	gate *Gate,
	groups driven.GroupStore,
	creds driven.CredentialStore,
	secrets driven.SecretStore,
) *QueryService {
	return &QueryService{gate: gate, groups: groups, creds: creds, secrets: secrets}
}

// ChildGroups lists the direct children of parentID (nil for root) with
// their icons, ordered by name.
func (s *QueryService) ChildGroups(ctx context.Context, parentID *int64) ([]model.GroupView, error) {
	var views []model.GroupView
	err := s.gate.query(ctx, func(ctx context.Context) error {
		if parentID != nil {
			if _, err := s.getGroup(ctx, *parentID); err != nil {
				return err
			}
		}
		var err error
		views, err = s.groups.ListChildren(ctx, parentID)
		if err != nil {
			return metadataErr("list", "child groups", err)
		}
		return nil
	})
	return views, err
}

// CredentialsInScope lists records ordered by title. With a group the scope
// is the group and every descendant; nil means every record in the vault.
func (s *QueryService) CredentialsInScope(ctx context.Context, groupID *int64) ([]model.CredentialRecord, error) {
	var recs []model.CredentialRecord
	err := s.gate.query(ctx, func(ctx context.Context) error {
		var err error
		if groupID == nil {
			recs, err = s.creds.ListAll(ctx)
			if err != nil {
				return metadataErr("list", "credentials", err)
			}
			return nil
		}

		groups, err := s.groups.ListAll(ctx)
		if err != nil {
			return metadataErr("list", "groups", err)
		}
		forest := tree.New(groups)
		if !forest.Contains(*groupID) {
			return notFound("group", *groupID)
		}
		recs, err = s.creds.ListByGroups(ctx, forest.Scope(*groupID))
		if err != nil {
			return metadataErr("list", entityID("credentials of group", *groupID), err)
		}
		return nil
	})
	return recs, err
}

// GroupInfo returns a single group.
func (s *QueryService) GroupInfo(ctx context.Context, id int64) (*model.Group, error) {
	var g *model.Group
	err := s.gate.query(ctx, func(ctx context.Context) error {
		var err error
		g, err = s.getGroup(ctx, id)
		return err
	})
	return g, err
}

// CredentialDetail returns a record together with its decrypted secret.
// A record whose secret is missing is reported as a secret StoreError
// wrapping driven.ErrSecretNotFound.
func (s *QueryService) CredentialDetail(ctx context.Context, id int64) (*model.Credential, error) {
	var cred *model.Credential
	err := s.gate.query(ctx, func(ctx context.Context) error {
		rec, err := s.creds.GetByID(ctx, id)
		if err != nil {
			return metadataErr("get", entityID("credential", id), err)
		}
		if rec == nil {
			return notFound("credential", id)
		}

		blob, err := s.secrets.Get(ctx, rec.SecretKey)
		if err != nil {
			return secretErr("get", entityKey(rec.SecretKey), err)
		}
		sec, err := decodeSecret(blob)
		if err != nil {
			return secretErr("decode", entityKey(rec.SecretKey), err)
		}

		cred = &model.Credential{CredentialRecord: *rec, CredentialSecret: sec}
		return nil
	})
	return cred, err
}

// ValidMoveTargets lists the groups id may be moved under, ordered by id.
// The root level is always a valid target and is not listed.
func (s *QueryService) ValidMoveTargets(ctx context.Context, id int64) ([]model.Group, error) {
	var targets []model.Group
	err := s.gate.query(ctx, func(ctx context.Context) error {
		groups, err := s.groups.ListAll(ctx)
		if err != nil {
			return metadataErr("list", "groups", err)
		}
		forest := tree.New(groups)
		if !forest.Contains(id) {
			return notFound("group", id)
		}
		for _, tid := range forest.ValidMoveTargets(id) {
			g, _ := forest.Get(tid)
			targets = append(targets, g)
		}
		return nil
	})
	return targets, err
}

func (s *QueryService) getGroup(ctx context.Context, id int64) (*model.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, metadataErr("get", entityID("group", id), err)
	}
	if g == nil {
		return nil, notFound("group", id)
	}
	return g, nil
}

