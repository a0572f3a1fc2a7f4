package dto

type TileQuery struct {
	QuadKey string `form:"quadKey" validate:"required,quadkey"`
	Type    string `form:"type" validate:"required,oneof=os sat"`
}
