package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart actions applied, labelled by action",
		},
		[]string{"action"},
	)

	cartLoadFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_load_fallbacks_total",
			Help: "Cart loads that fell back to an empty cart, labelled by reason",
		},
		[]string{"reason"},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Per-supplier checkout attempts, labelled by result",
		},
		[]string{"result"},
	)

	suggestionReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_suggestion_reviews_total",
			Help: "AI suggestion review actions, labelled by action and result",
		},
		[]string{"action", "result"},
	)

	fieldEditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_assortment_edits_total",
			Help: "Inline assortment edits, labelled by kind and status",
		},
		[]string{"kind", "status"},
	)
)
