package registry

import (
	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// DefaultITSMRegistry returns the built-in data dictionary for the ITSM
// dashboard: reference lookups first, then historical facts, then the live
// operational queue and derived knowledge-base content. The declaration
// order matches the dashboard's documented CSV load order.
func DefaultITSMRegistry(logger *logrus.Logger) *Registry {
	reg := NewRegistry(logger)

	datasets := []models.Dataset{
		{
			Name:       "dataset_catalog",
			Columns:    []string{"dataset_id", "name", "description", "tier", "owner"},
			PrimaryKey: []string{"dataset_id"},
			Tier:       models.TierLookup,
			Required:   []string{"dataset_id", "name"},
		},
		{
			Name:       "services_catalog",
			Columns:    []string{"service_id", "name", "criticality", "owner_group"},
			PrimaryKey: []string{"service_id"},
			Tier:       models.TierLookup,
			Required:   []string{"service_id", "name", "criticality"},
			MinRows:    1,
			MaxRows:    20,
		},
		{
			Name:       "category_tree",
			Columns:    []string{"category_id", "name", "parent_id", "path"},
			PrimaryKey: []string{"category_id"},
			Tier:       models.TierLookup,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "parent_id", ReferencedDataset: "category_tree"},
			},
			Required: []string{"category_id", "name"},
			MinRows:  5,
			MaxRows:  50,
		},
		{
			Name:       "cmdb_ci",
			Columns:    []string{"ci_id", "name", "ci_type", "service_id", "environment"},
			PrimaryKey: []string{"ci_id"},
			Tier:       models.TierLookup,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "service_id", ReferencedDataset: "services_catalog"},
			},
			Required: []string{"ci_id", "name"},
		},
		{
			Name:       "users_agents",
			Columns:    []string{"agent_id", "name", "email", "role", "location"},
			PrimaryKey: []string{"agent_id"},
			Tier:       models.TierLookup,
			Required:   []string{"agent_id", "name", "email"},
			MinRows:    1,
			MaxRows:    50,
		},
		{
			Name:       "assignment_groups",
			Columns:    []string{"group_id", "name", "description"},
			PrimaryKey: []string{"group_id"},
			Tier:       models.TierLookup,
			Required:   []string{"group_id", "name"},
		},
		{
			Name:       "agent_group_membership",
			Columns:    []string{"agent_id", "group_id", "joined_on"},
			PrimaryKey: []string{"agent_id", "group_id"},
			Tier:       models.TierLookup,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "agent_id", ReferencedDataset: "users_agents"},
				{Column: "group_id", ReferencedDataset: "assignment_groups"},
			},
			Required: []string{"agent_id", "group_id"},
		},
		{
			Name:       "skills_catalog",
			Columns:    []string{"skill_id", "name", "category"},
			PrimaryKey: []string{"skill_id"},
			Tier:       models.TierLookup,
			Required:   []string{"skill_id", "name"},
			MinRows:    1,
			MaxRows:    100,
		},
		{
			Name:       "agent_skills",
			Columns:    []string{"agent_id", "skill_id", "proficiency"},
			PrimaryKey: []string{"agent_id", "skill_id"},
			Tier:       models.TierLookup,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "agent_id", ReferencedDataset: "users_agents"},
				{Column: "skill_id", ReferencedDataset: "skills_catalog"},
			},
			Required: []string{"agent_id", "skill_id"},
		},
		{
			Name:       "synonyms_glossary",
			Columns:    []string{"term", "synonyms", "domain"},
			PrimaryKey: []string{"term"},
			Tier:       models.TierLookup,
			Required:   []string{"term"},
		},
		{
			Name:       "priority_matrix",
			Columns:    []string{"impact", "urgency", "priority"},
			PrimaryKey: []string{"impact", "urgency"},
			Tier:       models.TierLookup,
			Required:   []string{"impact", "urgency", "priority"},
		},
		{
			Name: "incidents_resolved",
			Columns: []string{
				"incident_id", "short_description", "description",
				"service_id", "category_id", "ci_id",
				"true_assignment_group_id", "true_priority",
				"created_on", "resolved_on",
			},
			PrimaryKey: []string{"incident_id"},
			Tier:       models.TierFact,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "service_id", ReferencedDataset: "services_catalog"},
				{Column: "category_id", ReferencedDataset: "category_tree"},
				{Column: "ci_id", ReferencedDataset: "cmdb_ci"},
				{Column: "true_assignment_group_id", ReferencedDataset: "assignment_groups"},
			},
			Required: []string{"incident_id", "short_description", "true_priority"},
			MinRows:  250,
			MaxRows:  350,
		},
		{
			Name: "workload_queue",
			Columns: []string{
				"item_id", "short_description", "service_id",
				"category_id", "status", "assigned_to", "created_on",
			},
			PrimaryKey: []string{"item_id"},
			Tier:       models.TierLive,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "service_id", ReferencedDataset: "services_catalog"},
				{Column: "category_id", ReferencedDataset: "category_tree"},
				{Column: "assigned_to", ReferencedDataset: "users_agents"},
			},
			Required: []string{"item_id", "short_description", "status"},
			MinRows:  10,
			MaxRows:  100,
		},
		{
			Name:       "agent_capacity_snapshots",
			Columns:    []string{"snapshot_id", "agent_id", "capacity", "open_count", "taken_on"},
			PrimaryKey: []string{"snapshot_id"},
			Tier:       models.TierLive,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "agent_id", ReferencedDataset: "users_agents"},
			},
			Required: []string{"snapshot_id", "agent_id"},
		},
		{
			Name:       "agent_performance_history",
			Columns:    []string{"record_id", "agent_id", "category_id", "resolved_count", "avg_resolution_hours"},
			PrimaryKey: []string{"record_id"},
			Tier:       models.TierLive,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "agent_id", ReferencedDataset: "users_agents"},
				{Column: "category_id", ReferencedDataset: "category_tree"},
			},
			Required: []string{"record_id", "agent_id"},
		},
		{
			Name:       "schedules",
			Columns:    []string{"schedule_id", "agent_id", "day_of_week", "shift_start", "shift_end"},
			PrimaryKey: []string{"schedule_id"},
			Tier:       models.TierLive,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "agent_id", ReferencedDataset: "users_agents"},
			},
			Required: []string{"schedule_id", "agent_id"},
		},
		{
			Name:       "kb_templates",
			Columns:    []string{"template_id", "name", "sections"},
			PrimaryKey: []string{"template_id"},
			Tier:       models.TierLookup,
			Required:   []string{"template_id", "name"},
		},
		{
			Name:       "kb_articles",
			Columns:    []string{"article_id", "title", "body", "template_id", "category_id", "created_on"},
			PrimaryKey: []string{"article_id"},
			Tier:       models.TierDerived,
			ForeignKeys: []models.ForeignKeyRef{
				{Column: "template_id", ReferencedDataset: "kb_templates"},
				{Column: "category_id", ReferencedDataset: "category_tree"},
			},
			Required: []string{"article_id", "title"},
		},
	}

	for _, ds := range datasets {
		// The built-in dictionary is statically consistent
		if err := reg.Register(ds); err != nil {
			panic(err)
		}
	}

	return reg
}
