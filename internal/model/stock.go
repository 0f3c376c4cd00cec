package model

import "time"

// Stock は主要テック銘柄の株価スナップショットを表す。
// 日次リフレッシュジョブがシンボル単位でUPSERTする。
type Stock struct {
	ID            int64
	Symbol        string
	CompanyName   string
	Price         float64
	Change        float64
	ChangePercent float64
	UpdatedAt     time.Time
}
