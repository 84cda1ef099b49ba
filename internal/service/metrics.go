package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_nodes_created_total",
			Help: "Total number of story nodes created, by origin.",
		},
		[]string{"origin"},
	)

	choicesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_choices_created_total",
			Help: "Total number of story choices created, by origin.",
		},
		[]string{"origin"},
	)

	choicesSelectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_choices_selected_total",
		Help: "Total number of choices selected by players.",
	})

	achievementsUnlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_achievements_unlocked_total",
		Help: "Total number of achievements newly added to a player's progress.",
	})

	imagesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_images_ingested_total",
			Help: "Total number of analyzed images ingested, by kind.",
		},
		[]string{"kind"},
	)
)
