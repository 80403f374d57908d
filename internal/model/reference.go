package model

// Province は州（provinsi）の参照データ。
type Province struct {
	ID   int
	Name string
	Code string
}

// City は市（kota）の参照データ。Provinceに多対一で属する。
type City struct {
	ID         int
	ProvinceID int
	Name       string
	Code       string
}

// Category はイベントカテゴリ（kategori acara）の参照データ。
type Category struct {
	ID          int
	Name        string
	Code        string
	Description *string
	IsActive    bool
}
