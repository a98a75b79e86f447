package service

import "turbo_bot/internal/models"

type Engine interface {
	// Evaluate считает индикаторы по истории (от старых к новым) и решает направление.
	Evaluate(instrument string, bars []models.PriceBar) (models.Snapshot, models.Signal)
	MinBars() int
	Name() string
}
