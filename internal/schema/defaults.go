package schema

// Default returns the built-in registry for the Graph API insights endpoint.
func Default() *Registry {
	r, err := New(defaultDefinition())
	if err != nil {
		// The built-in definition is covered by tests.
		panic(err)
	}
	return r
}

func defaultDefinition() Definition {
	return Definition{
		Levels: []string{"account", "campaign", "adset", "ad"},
		DatePresets: []string{
			"today",
			"yesterday",
			"this_month",
			"last_month",
			"this_quarter",
			"maximum",
			"data_maximum",
			"last_3d",
			"last_7d",
			"last_14d",
			"last_28d",
			"last_30d",
			"last_90d",
			"last_week_mon_sun",
			"last_week_sun_sat",
			"last_quarter",
			"last_year",
			"this_week_mon_today",
			"this_week_sun_today",
			"this_year",
		},
		TimeIncrements: []string{AllDays, "1", "monthly"},
		Breakdowns: []string{
			"age",
			"country",
			"gender",
			"frequency_value",
			"hourly_stats_aggregated_by_advertiser_time_zone",
			"hourly_stats_aggregated_by_audience_time_zone",
			"impression_device",
			"place_page_id",
			"publisher_platform",
			"device_platform",
			"platform_position",
			"product_id",
			"region",
			"ad_format_asset",
			"body_asset",
			"call_to_action_asset",
			"description_asset",
			"image_asset",
			"link_url_asset",
			"title_asset",
			"video_asset",
			"dma",
			"impressions",
		},
		Fields: []string{
			// identifiers
			"account_id",
			"account_name",
			"campaign_id",
			"campaign_name",
			"adset_id",
			"adset_name",
			"ad_id",
			"ad_name",

			// performance
			"impressions",
			"spend",
			"reach",
			"frequency",
			"clicks",
			"unique_clicks",
			"ctr",
			"cpc",
			"cpm",
			"cpp",
			"inline_link_clicks",
			"inline_link_click_ctr",

			// conversions
			"actions",
			"action_values",
			"cost_per_action_type",
			"cost_per_unique_click",
			"cost_per_inline_link_click",
			"website_ctr",
			"purchase_roas",
			"outbound_clicks",
			"outbound_clicks_ctr",

			// video
			"video_p25_watched_actions",
			"video_p50_watched_actions",
			"video_p75_watched_actions",
			"video_p100_watched_actions",
			"video_avg_time_watched_actions",
			"video_play_actions",

			// dates
			"date_start",
			"date_stop",
			"created_time",
			"updated_time",
		},
		Goals: []Goal{
			{ID: "purchase", Label: "Purchase"},
			{ID: "lead", Label: "Lead"},
			{ID: "add_to_cart", Label: "Add to Cart"},
			{ID: "complete_registration", Label: "Complete Registration"},
		},
		Defaults: Defaults{
			Level:          "campaign",
			DatePreset:     "last_30d",
			TimeIncrement:  AllDays,
			Fields:         []string{"campaign_name", "impressions", "spend", "clicks", "ctr", "cpc"},
			ConversionGoal: "purchase",
		},
		FieldTypes: map[string]FieldType{
			"impressions":                Integer,
			"reach":                      Integer,
			"clicks":                     Integer,
			"unique_clicks":              Integer,
			"inline_link_clicks":         Integer,
			"outbound_clicks":            Integer,
			"video_p25_watched_actions":  Integer,
			"video_p50_watched_actions":  Integer,
			"video_p75_watched_actions":  Integer,
			"video_p100_watched_actions": Integer,
			"video_play_actions":         Integer,

			"spend":                          Float,
			"frequency":                      Float,
			"ctr":                            Float,
			"cpc":                            Float,
			"cpm":                            Float,
			"cpp":                            Float,
			"inline_link_click_ctr":          Float,
			"cost_per_unique_click":          Float,
			"cost_per_inline_link_click":     Float,
			"website_ctr":                    Float,
			"outbound_clicks_ctr":            Float,
			"video_avg_time_watched_actions": Float,
			"purchase_roas":                  Float,
			"website_purchase_roas":          Float,

			"date_start":   DateTime,
			"date_stop":    DateTime,
			"created_time": DateTime,
			"updated_time": DateTime,

			"account_id":         Categorical,
			"account_name":       Categorical,
			"campaign_id":        Categorical,
			"campaign_name":      Categorical,
			"adset_id":           Categorical,
			"adset_name":         Categorical,
			"ad_id":              Categorical,
			"ad_name":            Categorical,
			"age":                Categorical,
			"country":            Categorical,
			"gender":             Categorical,
			"publisher_platform": Categorical,
			"device_platform":    Categorical,
			"platform_position":  Categorical,
		},
	}
}
