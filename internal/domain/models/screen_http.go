package models

// Query parameters of the screening HTTP endpoints.

type ScreenRequest struct {
	Market string `query:"market" json:"market" default:"kospi" validate:"market"`
	Period string `query:"period" json:"period" default:"1y" validate:"period"`
	Top    int    `query:"top" json:"top" default:"20" validate:"gte=1,lte=500"`
	Series bool   `query:"series" json:"series"`
}

type LatestScreenRequest struct {
	Market string `query:"market" json:"market" default:"kospi" validate:"market"`
	Period string `query:"period" json:"period" default:"1y" validate:"period"`
	Top    int    `query:"top" json:"top" default:"20" validate:"gte=1,lte=500"`
}

type SentimentRequest struct {
	Period string `query:"period" json:"period" default:"1mo" validate:"period"`
}
