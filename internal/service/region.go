package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

// RegionStore persists the region tree.
type RegionStore interface {
	RegionReader
	Get(ctx context.Context, id string) (*model.Region, error)
	CreateSubregion(ctx context.Context, parentID, name, code string) (*model.Region, error)
	UpdateSubregion(ctx context.Context, id, name, code string) error
	DeleteSubregion(ctx context.Context, id string) error
}

// RegionService manages subregions under the locked primary regions.
type RegionService struct {
	regions RegionStore
	logger  *zap.Logger
}

// NewRegionService wires a RegionService.
func NewRegionService(regions RegionStore, logger *zap.Logger) *RegionService {
	return &RegionService{regions: regions, logger: logger.Named("region")}
}

// Tree returns the primary regions with their subregions and manager.
func (s *RegionService) Tree(ctx context.Context) ([]model.RegionNode, error) {
	regions, err := s.regions.List(ctx)
	if err != nil {
		return nil, err
	}
	managers, err := s.regions.Managers(ctx)
	if err != nil {
		return nil, err
	}
	nodes := model.BuildRegionTree(regions)
	for i := range nodes {
		for _, m := range managers {
			if m.RegionID == nodes[i].ID && m.FullName != nil {
				name := *m.FullName
				nodes[i].ManagerName = &name
				break
			}
		}
	}
	return nodes, nil
}

type subregionInput struct {
	ParentID string `validate:"required"`
	Name     string `validate:"required"`
	Code     string `validate:"required"`
}

var subregionMessages = map[string]string{
	"ParentID": "Parent region id is required.",
	"Name":     "Subregion name and code are required.",
	"Code":     "Subregion name and code are required.",
}

const msgRegionID = "Region id is required."

// CreateSubregion adds a subregion under a primary region.
func (s *RegionService) CreateSubregion(ctx context.Context, parentID, name, code string) (*model.Region, error) {
	in := subregionInput{ParentID: strings.TrimSpace(parentID), Name: strings.TrimSpace(name), Code: strings.TrimSpace(code)}
	if err := check(in, subregionMessages); err != nil {
		return nil, err
	}
	parent, err := s.regions.Get(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsPrimary() {
		return nil, model.Invalid("Subregions can only be added under a primary region.")
	}
	r, err := s.regions.CreateSubregion(ctx, in.ParentID, in.Name, in.Code)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateRegion
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("subregion created", zap.String("region_id", r.ID), zap.String("parent_id", in.ParentID))
	return r, nil
}

// UpdateSubregion renames a subregion. Primary regions are refused.
func (s *RegionService) UpdateSubregion(ctx context.Context, id, name, code string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Invalid(msgRegionID)
	}
	in := subregionInput{ParentID: id, Name: strings.TrimSpace(name), Code: strings.TrimSpace(code)}
	if err := check(in, subregionMessages); err != nil {
		return err
	}
	if err := s.refuseLocked(ctx, id); err != nil {
		return err
	}
	err := s.regions.UpdateSubregion(ctx, id, in.Name, in.Code)
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrDuplicateRegion
	}
	return err
}

// DeleteSubregion removes a subregion. Primary regions are refused.
func (s *RegionService) DeleteSubregion(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Invalid(msgRegionID)
	}
	if err := s.refuseLocked(ctx, id); err != nil {
		return err
	}
	if err := s.regions.DeleteSubregion(ctx, id); err != nil {
		return err
	}
	s.logger.Info("subregion deleted", zap.String("region_id", id))
	return nil
}

func (s *RegionService) refuseLocked(ctx context.Context, id string) error {
	r, err := s.regions.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.IsLocked {
		return ErrRegionLocked
	}
	return nil
}
