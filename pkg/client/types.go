package client

import (
	"github.com/adriian-oc/oposiciones-app/internal/analytics"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

// Wire types shared with the server.
type (
	User                = users.User
	Theme               = catalog.Theme
	Part                = catalog.Part
	PracticalSet        = catalog.PracticalSet
	PracticalSetSummary = catalog.PracticalSetSummary
	ExamType            = exam.Type
	ExamSummary         = exam.ExamSummary
	ExamView            = exam.ExamView
	GenerateRequest     = exam.GenerateRequest
	StartedAttempt      = exam.StartedAttempt
	AnswerAck           = exam.AnswerAck
	Results             = exam.Results
	AttemptSummary      = exam.AttemptSummary
	FailureAnalytics    = analytics.FailureAnalytics
	StudyPlan           = analytics.StudyPlan
	OverallStats        = analytics.OverallStats
)

const (
	PartGeneral  = catalog.PartGeneral
	PartSpecific = catalog.PartSpecific

	TypeTheoryTopic = exam.TypeTheoryTopic
	TypeTheoryMixed = exam.TypeTheoryMixed
	TypePractical   = exam.TypePractical
	TypeSimulacro   = exam.TypeSimulacro

	StatusInProgress = exam.StatusInProgress
	StatusCompleted  = exam.StatusCompleted
)

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus = exam.Status
