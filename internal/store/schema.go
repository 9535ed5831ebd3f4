package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions applied by Open. They follow the layout ent's code
// generator emits into migrate/schema.go.
var (
	// TestSessionsColumns holds the columns for the "test_sessions" table.
	TestSessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "learner", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "questions", Type: field.TypeJSON},
		{Name: "answers", Type: field.TypeJSON},
		{Name: "start_time", Type: field.TypeTime},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
		{Name: "elapsed_seconds", Type: field.TypeFloat64, Default: 0},
		{Name: "score", Type: field.TypeFloat64, Default: 0},
		{Name: "correct_count", Type: field.TypeInt, Default: 0},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "status", Type: field.TypeString, Default: string(StatusActive)},
		{Name: "source", Type: field.TypeString, Default: ""},
	}
	// TestSessionsTable holds the schema information for the "test_sessions" table.
	TestSessionsTable = &schema.Table{
		Name:       "test_sessions",
		Columns:    TestSessionsColumns,
		PrimaryKey: []*schema.Column{TestSessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "testsession_learner_status",
				Unique:  false,
				Columns: []*schema.Column{TestSessionsColumns[1], TestSessionsColumns[12]},
			},
			{
				Name:    "testsession_end_time",
				Unique:  false,
				Columns: []*schema.Column{TestSessionsColumns[7]},
			},
		},
	}

	// LearningProfilesColumns holds the columns for the "learning_profiles" table.
	LearningProfilesColumns = []*schema.Column{
		{Name: "learner", Type: field.TypeString},
		{Name: "style", Type: field.TypeString},
		{Name: "optimal_session_length", Type: field.TypeInt},
		{Name: "preferred_subjects", Type: field.TypeJSON},
		{Name: "struggle_areas", Type: field.TypeJSON},
		{Name: "patterns", Type: field.TypeJSON},
		{Name: "session_count", Type: field.TypeInt},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LearningProfilesTable holds the schema information for the "learning_profiles" table.
	LearningProfilesTable = &schema.Table{
		Name:       "learning_profiles",
		Columns:    LearningProfilesColumns,
		PrimaryKey: []*schema.Column{LearningProfilesColumns[0]},
	}

	// StudySessionsColumns holds the columns for the "study_sessions" table.
	StudySessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "learner", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "duration_minutes", Type: field.TypeFloat64},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "engagement", Type: field.TypeFloat64},
		{Name: "timestamp", Type: field.TypeTime},
	}
	// StudySessionsTable holds the schema information for the "study_sessions" table.
	StudySessionsTable = &schema.Table{
		Name:       "study_sessions",
		Columns:    StudySessionsColumns,
		PrimaryKey: []*schema.Column{StudySessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "studysession_learner_timestamp",
				Unique:  false,
				Columns: []*schema.Column{StudySessionsColumns[1], StudySessionsColumns[6]},
			},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequestevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[5]},
			},
			{
				Name:    "llmrequestevent_timestamp",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[2]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		TestSessionsTable,
		LearningProfilesTable,
		StudySessionsTable,
		LlmRequestEventsTable,
	}
)
