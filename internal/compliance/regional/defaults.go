package regional

// defaults is the built-in per-jurisdiction configuration table. It is
// loaded once and treated as immutable: Resolve deep-copies an entry before
// merging tenant overrides onto it.
var defaults = map[string]map[string]interface{}{
	"AU": {
		"jurisdiction": "AU",
		"currency":     "AUD",
		"thresholds": map[string]interface{}{
			"ttr_required":         10000.0,
			"kyc_required":         1000.0,
			"enhanced_dd_required": 50000.0,
		},
		"structuring": map[string]interface{}{
			"window_days":           7,
			"min_transaction_count": 3,
			"amount_range": map[string]interface{}{
				"min": 7000.0,
				"max": 9999.99,
			},
		},
		"reporting_deadline_days": map[string]interface{}{
			"TTR": 10,
			"SMR": 3,
		},
		"ocdd_frequency_days": map[string]interface{}{
			"LOW":    365,
			"MEDIUM": 180,
			"HIGH":   90,
		},
		"risk_bands": map[string]interface{}{
			"medium": 40.0,
			"high":   70.0,
		},
		"velocity": map[string]interface{}{
			"baseline_weekly_count": 5,
			"multiplier":            3.0,
		},
		"high_risk_countries": []interface{}{"IR", "KP", "MM", "AF", "SY"},
		"holidays": []interface{}{
			map[string]interface{}{"name": "New Year's Day", "date": "01-01"},
			map[string]interface{}{"name": "Australia Day", "date": "01-26"},
			map[string]interface{}{"name": "Anzac Day", "date": "04-25"},
			// King's Birthday, second Monday of June in most states.
			map[string]interface{}{"name": "King's Birthday", "month": 6, "weekday": 1, "nth": 2},
			map[string]interface{}{"name": "Christmas Day", "date": "12-25"},
			map[string]interface{}{"name": "Boxing Day", "date": "12-26"},
		},
		"workweek":               []interface{}{1, 2, 3, 4, 5},
		"pep_rescreen_on_review": false,
	},
	"US": {
		"jurisdiction": "US",
		"currency":     "USD",
		"thresholds": map[string]interface{}{
			"ttr_required":         10000.0,
			"kyc_required":         3000.0,
			"enhanced_dd_required": 100000.0,
		},
		"structuring": map[string]interface{}{
			"window_days":           7,
			"min_transaction_count": 3,
			"amount_range": map[string]interface{}{
				"min": 7000.0,
				"max": 9999.99,
			},
		},
		"reporting_deadline_days": map[string]interface{}{
			"TTR": 15,
			"SMR": 30,
		},
		"ocdd_frequency_days": map[string]interface{}{
			"LOW":    365,
			"MEDIUM": 180,
			"HIGH":   90,
		},
		"risk_bands": map[string]interface{}{
			"medium": 40.0,
			"high":   70.0,
		},
		"velocity": map[string]interface{}{
			"baseline_weekly_count": 5,
			"multiplier":            3.0,
		},
		"high_risk_countries": []interface{}{"IR", "KP", "CU", "SY", "MM"},
		"holidays": []interface{}{
			map[string]interface{}{"name": "New Year's Day", "date": "01-01"},
			map[string]interface{}{"name": "Memorial Day", "month": 5, "weekday": 1, "nth": -1},
			map[string]interface{}{"name": "Independence Day", "date": "07-04"},
			map[string]interface{}{"name": "Labor Day", "month": 9, "weekday": 1, "nth": 1},
			map[string]interface{}{"name": "Thanksgiving", "month": 11, "weekday": 4, "nth": 4},
			map[string]interface{}{"name": "Christmas Day", "date": "12-25"},
		},
		"workweek":               []interface{}{1, 2, 3, 4, 5},
		"pep_rescreen_on_review": false,
	},
	"GB": {
		"jurisdiction": "GB",
		"currency":     "GBP",
		"thresholds": map[string]interface{}{
			"ttr_required":         8800.0,
			"kyc_required":         1000.0,
			"enhanced_dd_required": 44000.0,
		},
		"structuring": map[string]interface{}{
			"window_days":           7,
			"min_transaction_count": 3,
			"amount_range": map[string]interface{}{
				"min": 6000.0,
				"max": 8799.99,
			},
		},
		"reporting_deadline_days": map[string]interface{}{
			"TTR": 10,
			"SMR": 5,
		},
		"ocdd_frequency_days": map[string]interface{}{
			"LOW":    365,
			"MEDIUM": 180,
			"HIGH":   90,
		},
		"risk_bands": map[string]interface{}{
			"medium": 40.0,
			"high":   70.0,
		},
		"velocity": map[string]interface{}{
			"baseline_weekly_count": 5,
			"multiplier":            3.0,
		},
		"high_risk_countries": []interface{}{"IR", "KP", "MM", "AF", "SY", "RU"},
		"holidays": []interface{}{
			map[string]interface{}{"name": "New Year's Day", "date": "01-01"},
			map[string]interface{}{"name": "Early May Bank Holiday", "month": 5, "weekday": 1, "nth": 1},
			map[string]interface{}{"name": "Spring Bank Holiday", "month": 5, "weekday": 1, "nth": -1},
			map[string]interface{}{"name": "Summer Bank Holiday", "month": 8, "weekday": 1, "nth": -1},
			map[string]interface{}{"name": "Christmas Day", "date": "12-25"},
			map[string]interface{}{"name": "Boxing Day", "date": "12-26"},
		},
		"workweek":               []interface{}{1, 2, 3, 4, 5},
		"pep_rescreen_on_review": false,
	},
	"NZ": {
		"jurisdiction": "NZ",
		"currency":     "NZD",
		"thresholds": map[string]interface{}{
			"ttr_required":         10000.0,
			"kyc_required":         1000.0,
			"enhanced_dd_required": 50000.0,
		},
		"structuring": map[string]interface{}{
			"window_days":           7,
			"min_transaction_count": 3,
			"amount_range": map[string]interface{}{
				"min": 7000.0,
				"max": 9999.99,
			},
		},
		"reporting_deadline_days": map[string]interface{}{
			"TTR": 10,
			"SMR": 3,
		},
		"ocdd_frequency_days": map[string]interface{}{
			"LOW":    365,
			"MEDIUM": 180,
			"HIGH":   90,
		},
		"risk_bands": map[string]interface{}{
			"medium": 40.0,
			"high":   70.0,
		},
		"velocity": map[string]interface{}{
			"baseline_weekly_count": 5,
			"multiplier":            3.0,
		},
		"high_risk_countries": []interface{}{"IR", "KP", "MM", "AF", "SY"},
		"holidays": []interface{}{
			map[string]interface{}{"name": "New Year's Day", "date": "01-01"},
			map[string]interface{}{"name": "Day after New Year's Day", "date": "01-02"},
			map[string]interface{}{"name": "Waitangi Day", "date": "02-06"},
			map[string]interface{}{"name": "Anzac Day", "date": "04-25"},
			// First Monday of June.
			map[string]interface{}{"name": "King's Birthday", "month": 6, "weekday": 1, "nth": 1},
			map[string]interface{}{"name": "Christmas Day", "date": "12-25"},
			map[string]interface{}{"name": "Boxing Day", "date": "12-26"},
		},
		"workweek":               []interface{}{1, 2, 3, 4, 5},
		"pep_rescreen_on_review": false,
	},
	"SG": {
		"jurisdiction": "SG",
		"currency":     "SGD",
		"thresholds": map[string]interface{}{
			"ttr_required":         20000.0,
			"kyc_required":         5000.0,
			"enhanced_dd_required": 100000.0,
		},
		"structuring": map[string]interface{}{
			"window_days":           7,
			"min_transaction_count": 3,
			"amount_range": map[string]interface{}{
				"min": 14000.0,
				"max": 19999.99,
			},
		},
		"reporting_deadline_days": map[string]interface{}{
			"TTR": 10,
			"SMR": 15,
		},
		"ocdd_frequency_days": map[string]interface{}{
			"LOW":    365,
			"MEDIUM": 180,
			"HIGH":   90,
		},
		"risk_bands": map[string]interface{}{
			"medium": 40.0,
			"high":   70.0,
		},
		"velocity": map[string]interface{}{
			"baseline_weekly_count": 5,
			"multiplier":            3.0,
		},
		"high_risk_countries": []interface{}{"IR", "KP", "MM"},
		"holidays": []interface{}{
			map[string]interface{}{"name": "New Year's Day", "date": "01-01"},
			map[string]interface{}{"name": "National Day", "date": "08-09"},
			map[string]interface{}{"name": "Christmas Day", "date": "12-25"},
		},
		"workweek":               []interface{}{1, 2, 3, 4, 5},
		"pep_rescreen_on_review": false,
	},
}
