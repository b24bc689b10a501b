package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/domain/shared"
	"github.com/catalogo/backend/internal/infrastructure/persistence/models"
	"github.com/catalogo/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	opInsert    = "insert"
	opFindBySku = "find_by_sku"
	opDelete    = "delete"
	opUpdate    = "update"
	opListKit   = "list_kit_items"
)

// ReconciliationRecorder observes kit reconciliation outcomes
type ReconciliationRecorder interface {
	RecordKitChanges(ctx context.Context, inserted, updated, deleted int)
	RecordStaleRejection(ctx context.Context)
}

// ProdutoRepositoryOption configures a GormProdutoRepository
type ProdutoRepositoryOption func(*GormProdutoRepository)

// WithReconciliationRecorder reports kit changes and stale rejections to rec
func WithReconciliationRecorder(rec ReconciliationRecorder) ProdutoRepositoryOption {
	return func(r *GormProdutoRepository) {
		r.recorder = rec
	}
}

// GormProdutoRepository implements catalog.ProdutoRepository using GORM.
// Every write runs in a single transaction; the product row version and
// each kit line version are checked with conditional updates.
type GormProdutoRepository struct {
	db       *gorm.DB
	recorder ReconciliationRecorder
}

// NewGormProdutoRepository creates a new GormProdutoRepository
func NewGormProdutoRepository(db *gorm.DB, opts ...ProdutoRepositoryOption) *GormProdutoRepository {
	r := &GormProdutoRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// kitChanges counts the rows touched by one reconciliation
type kitChanges struct {
	inserted int
	updated  int
	deleted  int
}

func (c kitChanges) any() bool {
	return c.inserted+c.updated+c.deleted > 0
}

// Insert stores a new product at version 0 together with its price, stock and kit lines
func (r *GormProdutoRepository) Insert(ctx context.Context, produto *catalog.Produto) error {
	now := time.Now()
	produto.Stamp(now)

	row := models.ProdutoModelFromDomain(produto)
	row.Version = 0

	var precoRow *models.PrecoModel
	if produto.Preco != nil {
		precoRow = models.PrecoModelFromDomain(uuid.New(), *produto.Preco)
		row.PrecoID = &precoRow.ID
	}
	var estoqueRow *models.EstoqueModel
	if produto.Estoque != nil {
		estoqueRow = models.EstoqueModelFromDomain(uuid.New(), *produto.Estoque)
		row.EstoqueID = &estoqueRow.ID
	}

	kit := produto.Kit()
	kitRows := make([]*models.ItemKitModel, 0, len(kit))
	kitPrecos := make([]*models.PrecoModel, 0, len(kit))
	for _, item := range kit {
		preco := models.PrecoModelFromDomain(uuid.New(), item.Preco)
		kitPrecos = append(kitPrecos, preco)
		kitRows = append(kitRows, newItemKitRow(row.ID, item, preco.ID, now))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if precoRow != nil {
			if err := tx.Create(precoRow).Error; err != nil {
				return err
			}
		}
		if estoqueRow != nil {
			if err := tx.Create(estoqueRow).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			return err
		}
		for i, itemRow := range kitRows {
			if err := tx.Create(kitPrecos[i]).Error; err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Create(itemRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError(opInsert, produto.Sku, err)
	}

	produto.Version = 0
	if precoRow != nil {
		produto.Preco.ID = precoRow.ID
	}
	if estoqueRow != nil {
		produto.Estoque.ID = estoqueRow.ID
	}
	if produto.KitLoaded() {
		stored := make([]catalog.ItemKit, 0, len(kitRows))
		for i, itemRow := range kitRows {
			kitRows[i].Preco = kitPrecos[i]
			stored = append(stored, itemRow.ToDomain())
		}
		produto.LoadKit(stored)
	}
	return nil
}

// FindBySku loads a product with its price, stock and kit lines
func (r *GormProdutoRepository) FindBySku(ctx context.Context, sku string) (*catalog.Produto, error) {
	db := r.db.WithContext(ctx)

	var row models.ProdutoModel
	if err := db.Preload("Preco").Preload("Estoque").Where("sku = ?", sku).First(&row).Error; err != nil {
		return nil, translateError(opFindBySku, sku, err)
	}
	kit, err := loadKit(db, row.ID)
	if err != nil {
		return nil, translateError(opFindBySku, sku, err)
	}

	produto := row.ToDomain()
	produto.LoadKit(kit)
	return produto, nil
}

// Delete removes a product, its kit lines and the rows they own
func (r *GormProdutoRepository) Delete(ctx context.Context, sku string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ProdutoModel
		if err := tx.Select("id", "preco_id", "estoque_id").Where("sku = ?", sku).First(&row).Error; err != nil {
			return err
		}

		var itemPrecoIDs []uuid.UUID
		if err := tx.Model(&models.ItemKitModel{}).Where("kit_id = ?", row.ID).Pluck("preco_id", &itemPrecoIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("kit_id = ?", row.ID).Delete(&models.ItemKitModel{}).Error; err != nil {
			return err
		}
		if len(itemPrecoIDs) > 0 {
			if err := tx.Where("id IN ?", itemPrecoIDs).Delete(&models.PrecoModel{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", row.ID).Delete(&models.ProdutoModel{}).Error; err != nil {
			return err
		}
		if row.EstoqueID != nil {
			if err := tx.Where("id = ?", *row.EstoqueID).Delete(&models.EstoqueModel{}).Error; err != nil {
				return err
			}
		}
		if row.PrecoID != nil {
			if err := tx.Where("id = ?", *row.PrecoID).Delete(&models.PrecoModel{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(opDelete, sku, err)
}

// Update writes the aggregate over the stored product identified by its SKU.
//
// The presented version must match the stored one. Price and stock rows are
// updated in place, or created and linked when missing; a nil price or stock
// leaves storage untouched. When the kit is loaded it is reconciled line by
// line. The aggregate is refreshed with the new version and the stored kit.
func (r *GormProdutoRepository) Update(ctx context.Context, produto *catalog.Produto) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "produto_repository.update",
		telemetry.ProdutoAttrs(produto.Sku, produto.Version)...)
	defer func() { telemetry.EndSpan(span, err) }()

	var (
		current   models.ProdutoModel
		precoID   uuid.UUID
		estoqueID uuid.UUID
		changes   kitChanges
		kit       []catalog.ItemKit
	)
	now := time.Now()

	txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "version", "preco_id", "estoque_id", "created_at").
			Where("sku = ?", produto.Sku).
			First(&current).Error; err != nil {
			return err
		}
		if current.Version != produto.Version {
			return staleProduto(produto.Sku, produto.Version)
		}

		updates := map[string]any{
			"nome":       produto.Nome,
			"descr":      produto.Descr,
			"url_imagem": produto.URLImagem,
			"version":    current.Version + 1,
			"updated_at": now,
		}

		if produto.Preco != nil {
			id, err := syncPreco(tx, current.PrecoID, *produto.Preco)
			if err != nil {
				return err
			}
			precoID = id
			updates["preco_id"] = id
		}
		if produto.Estoque != nil {
			id, err := syncEstoque(tx, current.EstoqueID, *produto.Estoque)
			if err != nil {
				return err
			}
			estoqueID = id
			updates["estoque_id"] = id
		}

		result := tx.Model(&models.ProdutoModel{}).
			Where("id = ? AND version = ?", current.ID, current.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return staleProduto(produto.Sku, produto.Version)
		}

		if produto.KitLoaded() {
			var kitErr error
			telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("reconcile_kit"), func(context.Context) {
				changes, kitErr = reconcileKit(tx, current.ID, produto.Kit(), now)
			})
			if kitErr != nil {
				return kitErr
			}
		}

		stored, err := loadKit(tx, current.ID)
		if err != nil {
			return err
		}
		kit = stored
		return nil
	})
	if txErr != nil {
		mapped := translateError(opUpdate, produto.Sku, txErr)
		if r.recorder != nil && errors.Is(mapped, catalog.ErrProdutoDesatualizado) {
			r.recorder.RecordStaleRejection(ctx)
		}
		return mapped
	}

	if changes.any() {
		telemetry.RecordKitReconciled(span, changes.inserted, changes.updated, changes.deleted)
		if r.recorder != nil {
			r.recorder.RecordKitChanges(ctx, changes.inserted, changes.updated, changes.deleted)
		}
	}

	produto.ID = current.ID
	produto.Version = current.Version + 1
	produto.CreatedAt = current.CreatedAt
	produto.UpdatedAt = now
	if produto.Preco != nil {
		produto.Preco.ID = precoID
	}
	if produto.Estoque != nil {
		produto.Estoque.ID = estoqueID
	}
	produto.LoadKit(kit)
	return nil
}

// ListKitItems returns the stored lines of the kit identified by kitID
func (r *GormProdutoRepository) ListKitItems(ctx context.Context, kitID uuid.UUID) ([]catalog.ItemKit, error) {
	kit, err := loadKit(r.db.WithContext(ctx), kitID)
	if err != nil {
		return nil, catalog.NewStorageError(opListKit, err)
	}
	return kit, nil
}

func syncPreco(tx *gorm.DB, linked *uuid.UUID, preco catalog.Preco) (uuid.UUID, error) {
	if linked != nil {
		err := tx.Model(&models.PrecoModel{}).Where("id = ?", *linked).Updates(map[string]any{
			"preco_lista":    preco.PrecoLista,
			"preco_desconto": preco.PrecoDesconto,
		}).Error
		return *linked, err
	}
	row := models.PrecoModelFromDomain(uuid.New(), preco)
	if err := tx.Create(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func syncEstoque(tx *gorm.DB, linked *uuid.UUID, estoque catalog.Estoque) (uuid.UUID, error) {
	if linked != nil {
		err := tx.Model(&models.EstoqueModel{}).Where("id = ?", *linked).Updates(map[string]any{
			"em_estoque": estoque.EmEstoque,
			"reservado":  estoque.Reservado,
		}).Error
		return *linked, err
	}
	row := models.EstoqueModelFromDomain(uuid.New(), estoque)
	if err := tx.Create(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

// reconcileKit makes the stored lines of kitID equal to kit.
// Lines are matched by ID: stored lines missing from kit are deleted, matched
// lines whose content changed are updated under their own version, and every
// other line is inserted as a new row, including lines carrying an ID this kit
// has never stored. Deletes run first so a product removed and added again in
// one change does not collide with itself.
func reconcileKit(tx *gorm.DB, kitID uuid.UUID, kit []catalog.ItemKit, now time.Time) (kitChanges, error) {
	var changes kitChanges

	var stored []models.ItemKitModel
	if err := tx.Preload("Preco").Where("kit_id = ?", kitID).Find(&stored).Error; err != nil {
		return changes, err
	}

	wanted := make(map[uuid.UUID]bool, len(kit))
	for _, item := range kit {
		if item.IsPersisted() {
			wanted[item.ID] = true
		}
	}

	storedByID := make(map[uuid.UUID]*models.ItemKitModel, len(stored))
	for i := range stored {
		row := &stored[i]
		if wanted[row.ID] {
			storedByID[row.ID] = row
			continue
		}
		if err := tx.Where("id = ?", row.ID).Delete(&models.ItemKitModel{}).Error; err != nil {
			return changes, err
		}
		if err := tx.Where("id = ?", row.PrecoID).Delete(&models.PrecoModel{}).Error; err != nil {
			return changes, err
		}
		changes.deleted++
	}

	var inserts []catalog.ItemKit
	for _, item := range kit {
		row, ok := storedByID[item.ID]
		if !item.IsPersisted() || !ok {
			inserts = append(inserts, item)
			continue
		}
		if storedItem := row.ToDomain(); item.SameContent(storedItem) {
			continue
		}

		result := tx.Model(&models.ItemKitModel{}).
			Where("id = ? AND version = ?", item.ID, item.Version).
			Updates(map[string]any{
				"qtd":        item.Qtd,
				"version":    item.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return changes, result.Error
		}
		if result.RowsAffected == 0 {
			return changes, staleItemKit(item)
		}

		if row.Preco == nil || !item.Preco.Equals(row.Preco.ToDomain()) {
			if err := tx.Model(&models.PrecoModel{}).Where("id = ?", row.PrecoID).Updates(map[string]any{
				"preco_lista":    item.Preco.PrecoLista,
				"preco_desconto": item.Preco.PrecoDesconto,
			}).Error; err != nil {
				return changes, err
			}
		}
		changes.updated++
	}

	for _, item := range inserts {
		preco := models.PrecoModelFromDomain(uuid.New(), item.Preco)
		if err := tx.Create(preco).Error; err != nil {
			return changes, err
		}
		if err := tx.Omit(clause.Associations).Create(newItemKitRow(kitID, item, preco.ID, now)).Error; err != nil {
			return changes, err
		}
		changes.inserted++
	}

	return changes, nil
}

func loadKit(db *gorm.DB, kitID uuid.UUID) ([]catalog.ItemKit, error) {
	var rows []models.ItemKitModel
	if err := db.Preload("Preco").
		Where("kit_id = ?", kitID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	kit := make([]catalog.ItemKit, 0, len(rows))
	for i := range rows {
		kit = append(kit, rows[i].ToDomain())
	}
	return kit, nil
}

func newItemKitRow(kitID uuid.UUID, item catalog.ItemKit, precoID uuid.UUID, now time.Time) *models.ItemKitModel {
	return &models.ItemKitModel{
		ID:        uuid.New(),
		Version:   0,
		KitID:     kitID,
		ProdutoID: item.ProdutoID,
		Qtd:       item.Qtd,
		PrecoID:   precoID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func staleProduto(sku string, version int) error {
	return shared.NewDomainError(catalog.CodeProdutoDesatualizado,
		fmt.Sprintf("Product %s at version %d was modified by another request", sku, version))
}

func staleItemKit(item catalog.ItemKit) error {
	return shared.NewDomainError(catalog.CodeProdutoDesatualizado,
		fmt.Sprintf("Kit item %s at version %d was modified by another request", item.ProdutoID, item.Version))
}

// translateError maps a storage failure of op onto the catalog taxonomy
func translateError(op, sku string, err error) error {
	if err == nil {
		return nil
	}
	if catalog.IsKnownError(err) {
		return err
	}

	switch classify(err) {
	case faultNotFound:
		return shared.WrapDomainError(catalog.CodeProdutoNaoEncontrado, op,
			fmt.Sprintf("Product %s not found", sku), err)
	case faultConflict:
		return shared.WrapDomainError(catalog.CodeProdutoDesatualizado, op,
			fmt.Sprintf("Product %s was modified by another request", sku), err)
	case faultDuplicateKey:
		switch op {
		case opInsert:
			return shared.WrapDomainError(catalog.CodeProdutoJaExiste, op,
				fmt.Sprintf("Product %s already exists", sku), err)
		case opUpdate:
			return shared.WrapDomainError(catalog.CodeProdutoOuItemKitDuplicado, op,
				fmt.Sprintf("Product %s has a duplicated kit item", sku), err)
		}
	case faultForeignKey:
		if op == opInsert || op == opUpdate {
			return shared.WrapDomainError(catalog.CodeProdutoNaoEncontrado, op,
				fmt.Sprintf("Kit item of product %s references a missing product", sku), err)
		}
	}
	return catalog.NewStorageError(op, err)
}
