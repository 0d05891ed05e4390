package production

// Manufacturing constants for a stacked card: one printed 2.5x3.5 in card,
// ganged 6-up on US Letter with 1/16 in bleed, cut on a registration-mark
// cutter. The storefront and the print pipeline read the same values.
const (
	CardWidthIn  = 2.5
	CardHeightIn = 3.5

	SheetWidthIn  = 8.5
	SheetHeightIn = 11.0

	BleedIn = 0.0625

	CardsPerRow    = 2
	CardsPerColumn = 3

	SpacerInsetMM = 0.5
	DPI           = 300

	RegMarkOffsetIn = 0.25
	RegMarkSizeIn   = 0.2
)

type Point struct {
	XIn float64 `json:"x_inches"`
	YIn float64 `json:"y_inches"`
}

type Spec struct {
	CardSizeIn         [2]float64 `json:"card_size_inches"`
	SheetSizeIn        [2]float64 `json:"sheet_size_inches"`
	BleedIn            float64    `json:"bleed_inches"`
	SpacerInsetMM      float64    `json:"spacer_inset_mm"`
	CardsPerSheet      int        `json:"cards_per_sheet"`
	DPI                int        `json:"dpi"`
	RegMarkSizeIn      float64    `json:"registration_mark_size_inches"`
	RegMarkPositionsIn []Point    `json:"registration_mark_positions"`
}

// Current returns the production constants; registration marks sit at the top-left,
// top-right and bottom-left corners.
func Current() Spec {
	return Spec{
		CardSizeIn:    [2]float64{CardWidthIn, CardHeightIn},
		SheetSizeIn:   [2]float64{SheetWidthIn, SheetHeightIn},
		BleedIn:       BleedIn,
		SpacerInsetMM: SpacerInsetMM,
		CardsPerSheet: CardsPerRow * CardsPerColumn,
		DPI:           DPI,
		RegMarkSizeIn: RegMarkSizeIn,
		RegMarkPositionsIn: []Point{
			{RegMarkOffsetIn, RegMarkOffsetIn},
			{SheetWidthIn - RegMarkOffsetIn, RegMarkOffsetIn},
			{RegMarkOffsetIn, SheetHeightIn - RegMarkOffsetIn},
		},
	}
}
