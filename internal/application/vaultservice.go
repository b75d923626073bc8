// Package application contains the vault's use-case services. VaultService
// is the only component that writes to both the metadata store and the
// secret store within one logical operation.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
	"github.com/ericfisherdev/volt/internal/domain/tree"
)

// CreateCredentialInput carries a new credential. GroupID nil places it at
// the root level.
type CreateCredentialInput struct {
	Title    string
	GroupID  *int64
	Username string
	Password string
}

// UpdateCredentialInput replaces a credential's title and secret. The group
// changes only when ChangeGroup is set; GroupID nil then means root.
// SecretKey may be empty, otherwise it must match the stored record.
type UpdateCredentialInput struct {
	ID          int64
	SecretKey   string
	Title       string
	Username    string
	Password    string
	ChangeGroup bool
	GroupID     *int64
}

// CreateGroupInput carries a new group.
type CreateGroupInput struct {
	Name     string
	ParentID *int64
	IconID   *int64
}

// MoveGroupInput renames and reparents a group, then optionally relocates
// credentials from inside the group's subtree to TargetGroupID (nil is root).
type MoveGroupInput struct {
	GroupID       int64
	Name          string
	ParentID      *int64
	CredentialIDs []int64
	TargetGroupID *int64
}

// VaultService orchestrates tree operations, the metadata store and the
// secret store. Store calls within an operation are strictly ordered; a
// failure at step N means step N+1 never runs.
type VaultService struct {
	gate    *Gate
	groups  driven.GroupStore
	creds   driven.CredentialStore
	icons   driven.IconStore
	secrets driven.SecretStore
	wiper   driven.VaultWiper
	newKey  func() string
	log     *slog.Logger
}

// NewVaultService creates a new VaultService with the required dependencies.
func NewVaultService(
	gate *Gate,
	groups driven.GroupStore,
	creds driven.CredentialStore,
	icons driven.IconStore,
	secrets driven.SecretStore,
	wiper driven.VaultWiper,
	logger *slog.Logger,
) *VaultService {
	return &VaultService{
		gate:    gate,
		groups:  groups,
		creds:   creds,
		icons:   icons,
		secrets: secrets,
		wiper:   wiper,
		newKey:  uuid.NewString,
		log:     logger.With("service", "vault"),
	}
}

// CreateCredential stores the secret under a fresh key, then inserts the
// record. Returns the new record id.
func (s *VaultService) CreateCredential(ctx context.Context, in CreateCredentialInput) (int64, error) {
	if err := requireText(
		textField{name: "title", value: in.Title},
		textField{name: "username", value: in.Username, secret: true},
		textField{name: "password", value: in.Password, secret: true},
	); err != nil {
		return 0, err
	}

	var id int64
	err := s.gate.mutate(ctx, func(ctx context.Context) error {
		if err := s.checkGroupExists(ctx, in.GroupID, "group_id"); err != nil {
			return err
		}

		blob, err := encodeSecret(in.Username, in.Password)
		if err != nil {
			return err
		}

		key := s.newKey()
		sg := saga{log: s.log, secretKey: key}
		return sg.run(ctx,
			sagaStep{
				name:    "put secret",
				onLater: compensate,
				run: func(ctx context.Context) error {
					if err := s.secrets.Put(ctx, key, blob); err != nil {
						return secretErr("put", entityKey(key), err)
					}
					return nil
				},
				rollback: func(ctx context.Context) error {
					return s.secrets.Delete(ctx, key)
				},
			},
			sagaStep{
				name: "insert record",
				run: func(ctx context.Context) error {
					newID, err := s.creds.Create(ctx, model.CredentialRecord{
						GroupID:   in.GroupID,
						Title:     in.Title,
						SecretKey: key,
					})
					if err != nil {
						return metadataErr("insert", "credential "+in.Title, err)
					}
					id = newID
					return nil
				},
			},
		)
	})
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "credential created", slog.Int64("credential_id", id))
	return id, nil
}

// UpdateCredential writes the secret under its unchanged key, then the
// record's title and group. A metadata failure after the secret write is
// returned as a metadata StoreError; the new secret stays.
func (s *VaultService) UpdateCredential(ctx context.Context, in UpdateCredentialInput) error {
	if err := requireText(
		textField{name: "title", value: in.Title},
		textField{name: "username", value: in.Username, secret: true},
		textField{name: "password", value: in.Password, secret: true},
	); err != nil {
		return err
	}

	return s.gate.mutate(ctx, func(ctx context.Context) error {
		rec, err := s.creds.GetByID(ctx, in.ID)
		if err != nil {
			return metadataErr("get", entityID("credential", in.ID), err)
		}
		if rec == nil {
			return notFound("credential", in.ID)
		}
		if in.SecretKey != "" && in.SecretKey != rec.SecretKey {
			return model.NewValidationError("secret_key", "does not match the stored credential")
		}

		groupID := rec.GroupID
		if in.ChangeGroup {
			if err := s.checkGroupExists(ctx, in.GroupID, "group_id"); err != nil {
				return err
			}
			groupID = in.GroupID
		}

		blob, err := encodeSecret(in.Username, in.Password)
		if err != nil {
			return err
		}

		sg := saga{log: s.log, secretKey: rec.SecretKey, recordID: rec.ID}
		if err := sg.run(ctx,
			sagaStep{
				name:    "put secret",
				onLater: accept,
				run: func(ctx context.Context) error {
					if err := s.secrets.Put(ctx, rec.SecretKey, blob); err != nil {
						return secretErr("put", entityKey(rec.SecretKey), err)
					}
					return nil
				},
			},
			sagaStep{
				name: "update record",
				run: func(ctx context.Context) error {
					if err := s.creds.Update(ctx, rec.ID, in.Title, groupID); err != nil {
						return metadataErr("update", entityID("credential", rec.ID), err)
					}
					return nil
				},
			},
		); err != nil {
			return err
		}

		s.log.InfoContext(ctx, "credential updated", slog.Int64("credential_id", rec.ID))
		return nil
	})
}

// DeleteCredential removes the secret, then the record. Deleting a missing
// record reports ErrNotFound and touches neither store.
func (s *VaultService) DeleteCredential(ctx context.Context, id int64, secretKey string) error {
	return s.gate.mutate(ctx, func(ctx context.Context) error {
		rec, err := s.creds.GetByID(ctx, id)
		if err != nil {
			return metadataErr("get", entityID("credential", id), err)
		}
		if rec == nil {
			return notFound("credential", id)
		}
		if secretKey != "" && secretKey != rec.SecretKey {
			return model.NewValidationError("secret_key", "does not match the stored credential")
		}
		if err := s.deleteCredential(ctx, *rec); err != nil {
			return err
		}
		s.log.InfoContext(ctx, "credential deleted", slog.Int64("credential_id", id))
		return nil
	})
}

// deleteCredential runs the secret-first delete for one record. A secret
// that is already gone counts as deleted.
func (s *VaultService) deleteCredential(ctx context.Context, rec model.CredentialRecord) error {
	sg := saga{log: s.log, secretKey: rec.SecretKey, recordID: rec.ID}
	return sg.run(ctx,
		sagaStep{
			name:    "delete secret",
			onLater: orphanRisk,
			run: func(ctx context.Context) error {
				err := s.secrets.Delete(ctx, rec.SecretKey)
				if err != nil && !errors.Is(err, driven.ErrSecretNotFound) {
					return secretErr("delete", entityKey(rec.SecretKey), err)
				}
				return nil
			},
		},
		sagaStep{
			name: "delete record",
			run: func(ctx context.Context) error {
				if err := s.creds.Delete(ctx, rec.ID); err != nil {
					return metadataErr("delete", entityID("credential", rec.ID), err)
				}
				return nil
			},
		},
	)
}

// CreateGroup inserts a group under ParentID (nil is root). Parent and icon
// must exist.
func (s *VaultService) CreateGroup(ctx context.Context, in CreateGroupInput) (int64, error) {
	if err := requireText(textField{name: "name", value: in.Name}); err != nil {
		return 0, err
	}

	var id int64
	err := s.gate.mutate(ctx, func(ctx context.Context) error {
		if err := s.checkGroupExists(ctx, in.ParentID, "parent_id"); err != nil {
			return err
		}
		if in.IconID != nil {
			icon, err := s.icons.GetByID(ctx, *in.IconID)
			if err != nil {
				return metadataErr("get", entityID("icon", *in.IconID), err)
			}
			if icon == nil {
				return model.NewValidationError("icon_id", "icon does not exist")
			}
		}

		newID, err := s.groups.Create(ctx, model.Group{Name: in.Name, ParentID: in.ParentID, IconID: in.IconID})
		if err != nil {
			return metadataErr("insert", "group "+in.Name, err)
		}
		id = newID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "group created", slog.Int64("group_id", id))
	return id, nil
}

// MoveGroup validates the whole request before writing, updates the group
// row, then relocates the listed credentials in one statement. A failed
// relocation leaves the group update in place.
func (s *VaultService) MoveGroup(ctx context.Context, in MoveGroupInput) error {
	if err := requireText(textField{name: "name", value: in.Name}); err != nil {
		return err
	}

	return s.gate.mutate(ctx, func(ctx context.Context) error {
		forest, err := s.loadForest(ctx)
		if err != nil {
			return err
		}
		if !forest.Contains(in.GroupID) {
			return notFound("group", in.GroupID)
		}
		if err := forest.CheckMove(in.GroupID, in.ParentID); err != nil {
			return err
		}
		if err := s.checkRelocation(ctx, forest, in); err != nil {
			return err
		}

		sg := saga{log: s.log}
		if err := sg.run(ctx,
			sagaStep{
				name:    "update group",
				onLater: accept,
				run: func(ctx context.Context) error {
					if err := s.groups.Update(ctx, in.GroupID, in.Name, in.ParentID); err != nil {
						return metadataErr("update", entityID("group", in.GroupID), err)
					}
					return nil
				},
			},
			sagaStep{
				name: "relocate credentials",
				run: func(ctx context.Context) error {
					if _, err := s.creds.Relocate(ctx, in.CredentialIDs, in.TargetGroupID); err != nil {
						return metadataErr("relocate", fmt.Sprintf("%d credentials", len(in.CredentialIDs)), err)
					}
					return nil
				},
			},
		); err != nil {
			return err
		}

		s.log.InfoContext(ctx, "group moved",
			slog.Int64("group_id", in.GroupID),
			slog.Int("relocated", len(in.CredentialIDs)),
		)
		return nil
	})
}

// checkRelocation requires every listed credential to live inside the moved
// group's subtree and the target group to exist.
func (s *VaultService) checkRelocation(ctx context.Context, forest *tree.Forest, in MoveGroupInput) error {
	if len(in.CredentialIDs) == 0 {
		return nil
	}
	if in.TargetGroupID != nil && !forest.Contains(*in.TargetGroupID) {
		return model.NewValidationError("target_group_id", "group does not exist")
	}

	scope := forest.Scope(in.GroupID)
	inScope, err := s.creds.ListByGroups(ctx, scope)
	if err != nil {
		return metadataErr("list", entityID("credentials of group", in.GroupID), err)
	}
	allowed := make(map[int64]bool, len(inScope))
	for _, rec := range inScope {
		allowed[rec.ID] = true
	}
	for _, id := range in.CredentialIDs {
		if !allowed[id] {
			return model.NewValidationError("credential_ids",
				fmt.Sprintf("credential %d is not inside group %d", id, in.GroupID))
		}
	}
	return nil
}

// DeleteGroupSubtree deletes a group, its descendants and all their
// credentials, children before parents. The first failure stops the walk;
// completed deletions are not rolled back.
func (s *VaultService) DeleteGroupSubtree(ctx context.Context, groupID int64) error {
	return s.gate.mutate(ctx, func(ctx context.Context) error {
		forest, err := s.loadForest(ctx)
		if err != nil {
			return err
		}
		if !forest.Contains(groupID) {
			return notFound("group", groupID)
		}

		plan := forest.DeletePlan(groupID)
		recs, err := s.creds.ListByGroups(ctx, plan)
		if err != nil {
			return metadataErr("list", entityID("credentials of group", groupID), err)
		}
		byGroup := make(map[int64][]model.CredentialRecord, len(plan))
		for _, rec := range recs {
			byGroup[*rec.GroupID] = append(byGroup[*rec.GroupID], rec)
		}

		total := len(plan) + len(recs)
		deleted := 0
		fail := func(err error) error {
			if deleted == 0 {
				return err
			}
			return &model.PartialFailureError{
				GroupID:   groupID,
				Deleted:   deleted,
				Remaining: total - deleted,
				Err:       err,
			}
		}

		for _, gid := range plan {
			for _, rec := range byGroup[gid] {
				if err := s.deleteCredential(ctx, rec); err != nil {
					return fail(err)
				}
				deleted++
			}
			if err := s.groups.Delete(ctx, gid); err != nil {
				return fail(metadataErr("delete", entityID("group", gid), err))
			}
			deleted++
		}

		s.log.InfoContext(ctx, "group subtree deleted",
			slog.Int64("group_id", groupID),
			slog.Int("groups", len(plan)),
			slog.Int("credentials", len(recs)),
		)
		return nil
	})
}

// DeleteAllData deletes every credential secret, then truncates the
// metadata tables. Any secret failure aborts before the metadata is touched.
func (s *VaultService) DeleteAllData(ctx context.Context) error {
	return s.gate.mutate(ctx, func(ctx context.Context) error {
		recs, err := s.creds.ListAll(ctx)
		if err != nil {
			return metadataErr("list", "credentials", err)
		}

		var errs []error
		for _, rec := range recs {
			if err := s.secrets.Delete(ctx, rec.SecretKey); err != nil && !errors.Is(err, driven.ErrSecretNotFound) {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return secretErr("delete", fmt.Sprintf("%d of %d secrets", len(errs), len(recs)), errors.Join(errs...))
		}

		if err := s.wiper.WipeAll(ctx); err != nil {
			return metadataErr("wipe", "vault", err)
		}

		s.log.WarnContext(ctx, "vault wiped", slog.Int("credentials", len(recs)))
		return nil
	})
}

func (s *VaultService) loadForest(ctx context.Context) (*tree.Forest, error) {
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, metadataErr("list", "groups", err)
	}
	return tree.New(groups), nil
}

// checkGroupExists accepts nil (root) or the id of an existing group.
func (s *VaultService) checkGroupExists(ctx context.Context, id *int64, field string) error {
	if id == nil {
		return nil
	}
	g, err := s.groups.GetByID(ctx, *id)
	if err != nil {
		return metadataErr("get", entityID("group", *id), err)
	}
	if g == nil {
		return model.NewValidationError(field, "group does not exist")
	}
	return nil
}

func encodeSecret(username, password string) ([]byte, error) {
	blob, err := json.Marshal(model.CredentialSecret{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode secret: %w", err)
	}
	return blob, nil
}

func decodeSecret(blob []byte) (model.CredentialSecret, error) {
	var sec model.CredentialSecret
	if err := json.Unmarshal(blob, &sec); err != nil {
		return sec, fmt.Errorf("decode secret: %w", err)
	}
	return sec, nil
}
