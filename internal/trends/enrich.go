package trends

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"trendpulse/internal/models"
)

// Intent token lists, checked in fixed priority order: commercial first,
// then creative, default informational.
var (
	commercialTokens = []string{
		"beli", "jual", "jualan", "iklan", "promo", "order", "harga", "toko",
		"shop", "video produk", "tiktok shop", "affiliate",
	}
	creativeTokens = []string{
		"prompt", "aesthetic", "poster", "midjourney", "art", "desain",
		"template", "keren", "vintage", "surreal", "cyberpunk", "anime",
	}
)

// ClassifyIntent applies the rule-based intent classifier to a keyword.
func ClassifyIntent(keyword string) string {
	k := strings.ToLower(keyword)
	for _, t := range commercialTokens {
		if strings.Contains(k, t) {
			return models.IntentCommercial
		}
	}
	for _, t := range creativeTokens {
		if strings.Contains(k, t) {
			return models.IntentCreative
		}
	}
	return models.IntentInformational
}

// KeywordHash returns the dedupe digest of topic|keyword. Not a security
// boundary; it only has to be deterministic and collision-resistant enough
// for downstream dedup keys.
func KeywordHash(topic, keyword string) string {
	sum := sha1.Sum([]byte(topic + "|" + keyword))
	return hex.EncodeToString(sum[:])
}

// Enrich turns raw keyword/score pairs into full records. Pure: identical
// inputs (including now) always yield identical records.
func Enrich(topic, cluster string, raw []models.RawTrend, source string, now time.Time, dayBucket bool) []models.KeywordRecord {
	now = now.UTC()
	records := make([]models.KeywordRecord, 0, len(raw))
	for _, r := range raw {
		rec := models.KeywordRecord{
			Keyword:      r.Keyword,
			Score:        r.Score,
			Topic:        topic,
			TopicCluster: cluster,
			Intent:       ClassifyIntent(r.Keyword),
			Source:       source,
			KeywordHash:  KeywordHash(topic, r.Keyword),
			Timestamp:    now,
		}
		if dayBucket {
			rec.DayBucket = now.Format("2006-01-02")
		}
		records = append(records, rec)
	}
	return records
}
