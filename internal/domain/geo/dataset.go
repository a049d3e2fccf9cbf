package geo

import (
	"strings"
)

// DatasetVersion identifies the administrative reference data revision.
// The canonical list follows the 2025 provincial reorganization (34 units).
const DatasetVersion = "2025-07"

// Province is an entry in the canonical province list
type Province struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// District is an entry in the district directory
type District struct {
	ID         int    `json:"id"`
	ProvinceID int    `json:"province_id"`
	Name       string `json:"name"`
}

// Ward is an entry in the ward directory
type Ward struct {
	ID         int    `json:"id"`
	DistrictID int    `json:"district_id"`
	Name       string `json:"name"`
}

// canonicalProvinces is the fixed post-reorganization province list.
// IDs are stable and referenced by the district directory below.
var canonicalProvinces = []Province{
	{1, "Thành phố Hà Nội"},
	{2, "Thành phố Hải Phòng"},
	{3, "Thành phố Huế"},
	{4, "Thành phố Đà Nẵng"},
	{5, "Thành phố Hồ Chí Minh"},
	{6, "Thành phố Cần Thơ"},
	{7, "Tuyên Quang"},
	{8, "Lào Cai"},
	{9, "Thái Nguyên"},
	{10, "Phú Thọ"},
	{11, "Bắc Ninh"},
	{12, "Hưng Yên"},
	{13, "Ninh Bình"},
	{14, "Quảng Ninh"},
	{15, "Thanh Hóa"},
	{16, "Nghệ An"},
	{17, "Hà Tĩnh"},
	{18, "Quảng Trị"},
	{19, "Quảng Ngãi"},
	{20, "Gia Lai"},
	{21, "Khánh Hòa"},
	{22, "Lâm Đồng"},
	{23, "Đắk Lắk"},
	{24, "Đồng Nai"},
	{25, "Tây Ninh"},
	{26, "Đồng Tháp"},
	{27, "An Giang"},
	{28, "Vĩnh Long"},
	{29, "Cà Mau"},
	{30, "Điện Biên"},
	{31, "Lai Châu"},
	{32, "Sơn La"},
	{33, "Lạng Sơn"},
	{34, "Cao Bằng"},
}

// provinceAliases maps every pre-reorganization province name onto its
// current canonical province. Merged provinces map to their successor.
var provinceAliases = map[string]string{
	"Hà Giang":            "Tuyên Quang",
	"Yên Bái":             "Lào Cai",
	"Bắc Kạn":             "Thái Nguyên",
	"Vĩnh Phúc":           "Phú Thọ",
	"Hòa Bình":            "Phú Thọ",
	"Bắc Giang":           "Bắc Ninh",
	"Thái Bình":           "Hưng Yên",
	"Hà Nam":              "Ninh Bình",
	"Nam Định":            "Ninh Bình",
	"Hải Dương":           "Thành phố Hải Phòng",
	"Thừa Thiên Huế":      "Thành phố Huế",
	"Quảng Bình":          "Quảng Trị",
	"Quảng Nam":           "Thành phố Đà Nẵng",
	"Kon Tum":             "Quảng Ngãi",
	"Bình Định":           "Gia Lai",
	"Ninh Thuận":          "Khánh Hòa",
	"Bình Thuận":          "Lâm Đồng",
	"Đắk Nông":            "Lâm Đồng",
	"Phú Yên":             "Đắk Lắk",
	"Bình Phước":          "Đồng Nai",
	"Bà Rịa - Vũng Tàu":   "Thành phố Hồ Chí Minh",
	"Bình Dương":          "Thành phố Hồ Chí Minh",
	"Long An":             "Tây Ninh",
	"Tiền Giang":          "Đồng Tháp",
	"Kiên Giang":          "An Giang",
	"Bến Tre":             "Vĩnh Long",
	"Trà Vinh":            "Vĩnh Long",
	"Bạc Liêu":            "Cà Mau",
	"Hậu Giang":           "Thành phố Cần Thơ",
	"Sóc Trăng":           "Thành phố Cần Thơ",
	"Cần Thơ":             "Thành phố Cần Thơ",
	"Hà Nội":              "Thành phố Hà Nội",
	"Hải Phòng":           "Thành phố Hải Phòng",
	"Huế":                 "Thành phố Huế",
	"Đà Nẵng":             "Thành phố Đà Nẵng",
	"Hồ Chí Minh":         "Thành phố Hồ Chí Minh",
	"TPHCM":               "Thành phố Hồ Chí Minh",
	"Sài Gòn":             "Thành phố Hồ Chí Minh",
}

// districtDirectory is a representative directory for the most heavily used
// metropolitan areas. The carrier's own region listing can supplement it at
// request time; local data keeps the lookup endpoints available when the
// carrier is down.
var districtDirectory = []District{
	{101, 5, "Quận 1"},
	{102, 5, "Quận 3"},
	{103, 5, "Quận 7"},
	{104, 5, "Quận Bình Thạnh"},
	{105, 5, "Quận Tân Bình"},
	{106, 5, "Quận Gò Vấp"},
	{107, 5, "Thành phố Thủ Đức"},
	{108, 5, "Huyện Củ Chi"},
	{109, 5, "Huyện Hóc Môn"},
	{201, 1, "Quận Ba Đình"},
	{202, 1, "Quận Hoàn Kiếm"},
	{203, 1, "Quận Đống Đa"},
	{204, 1, "Quận Cầu Giấy"},
	{205, 1, "Quận Hai Bà Trưng"},
	{206, 1, "Huyện Đông Anh"},
	{301, 4, "Quận Hải Châu"},
	{302, 4, "Quận Thanh Khê"},
	{303, 4, "Quận Sơn Trà"},
	{401, 6, "Quận Ninh Kiều"},
	{402, 6, "Quận Cái Răng"},
}

var wardDirectory = []Ward{
	{1001, 101, "Phường Bến Nghé"},
	{1002, 101, "Phường Bến Thành"},
	{1003, 101, "Phường Đa Kao"},
	{1004, 102, "Phường Võ Thị Sáu"},
	{1005, 103, "Phường Tân Phong"},
	{1006, 104, "Phường 25"},
	{1007, 108, "Thị trấn Củ Chi"},
	{2001, 201, "Phường Điện Biên"},
	{2002, 202, "Phường Hàng Trống"},
	{2003, 204, "Phường Dịch Vọng"},
	{3001, 301, "Phường Thạch Thang"},
	{4001, 401, "Phường Tân An"},
}

// Lookup indexes built once at package init. Keys are diacritic/case-folded.
var (
	provinceByKey      map[string]string
	provinceAliasByKey map[string]string
	provinceByID       map[int]Province
	districtsByProv    map[int][]District
	districtByID       map[int]District
	wardsByDistrict    map[int][]Ward
)

func init() {
	provinceByKey = make(map[string]string, len(canonicalProvinces))
	provinceByID = make(map[int]Province, len(canonicalProvinces))
	for _, p := range canonicalProvinces {
		provinceByKey[foldKey(p.Name)] = p.Name
		provinceByID[p.ID] = p
		// Cities also resolve without their "Thành phố" qualifier.
		if rest, ok := strings.CutPrefix(p.Name, "Thành phố "); ok {
			provinceByKey[foldKey(rest)] = p.Name
		}
	}
	provinceAliasByKey = make(map[string]string, len(provinceAliases))
	for alias, canonical := range provinceAliases {
		provinceAliasByKey[foldKey(alias)] = canonical
	}
	districtsByProv = make(map[int][]District)
	districtByID = make(map[int]District, len(districtDirectory))
	for _, d := range districtDirectory {
		districtsByProv[d.ProvinceID] = append(districtsByProv[d.ProvinceID], d)
		districtByID[d.ID] = d
	}
	wardsByDistrict = make(map[int][]Ward)
	for _, w := range wardDirectory {
		wardsByDistrict[w.DistrictID] = append(wardsByDistrict[w.DistrictID], w)
	}
}

// Provinces returns the canonical province list
func Provinces() []Province {
	out := make([]Province, len(canonicalProvinces))
	copy(out, canonicalProvinces)
	return out
}

// ProvinceByID looks up a canonical province by its ID
func ProvinceByID(id int) (Province, bool) {
	p, ok := provinceByID[id]
	return p, ok
}

// Aliases returns a copy of the legacy-to-canonical province alias table
func Aliases() map[string]string {
	out := make(map[string]string, len(provinceAliases))
	for k, v := range provinceAliases {
		out[k] = v
	}
	return out
}

// DistrictsOf returns the known districts of a province
func DistrictsOf(provinceID int) []District {
	ds := districtsByProv[provinceID]
	out := make([]District, len(ds))
	copy(out, ds)
	return out
}

// WardsOf returns the known wards of a district
func WardsOf(districtID int) []Ward {
	ws := wardsByDistrict[districtID]
	out := make([]Ward, len(ws))
	copy(out, ws)
	return out
}

// SearchResult is a match from a free-text directory search
type SearchResult struct {
	Level      string `json:"level"` // province, district, ward
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ParentID   int    `json:"parent_id,omitempty"`
	ParentName string `json:"parent_name,omitempty"`
}

// Search runs a diacritic-insensitive substring search across the directory
func Search(query string) []SearchResult {
	q := foldKey(query)
	if q == "" {
		return nil
	}
	var results []SearchResult
	for _, p := range canonicalProvinces {
		if strings.Contains(foldKey(p.Name), q) {
			results = append(results, SearchResult{Level: "province", ID: p.ID, Name: p.Name})
		}
	}
	for _, d := range districtDirectory {
		if strings.Contains(foldKey(d.Name), q) {
			parent := provinceByID[d.ProvinceID]
			results = append(results, SearchResult{
				Level: "district", ID: d.ID, Name: d.Name,
				ParentID: parent.ID, ParentName: parent.Name,
			})
		}
	}
	for _, w := range wardDirectory {
		if strings.Contains(foldKey(w.Name), q) {
			parent := districtByID[w.DistrictID]
			results = append(results, SearchResult{
				Level: "ward", ID: w.ID, Name: w.Name,
				ParentID: parent.ID, ParentName: parent.Name,
			})
		}
	}
	return results
}

// ValidationResult reports how an address resolved against the dataset
type ValidationResult struct {
	Address         Address `json:"address"`
	ProvinceKnown   bool    `json:"province_known"`
	ProvinceAliased bool    `json:"province_aliased"`
}

// Validate canonicalizes the address and reports whether the province
// resolved against the canonical list or the alias table.
func Validate(a Address) ValidationResult {
	key := foldKey(trimProvincePrefix(strings.TrimSpace(a.Province)))
	_, known := provinceByKey[key]
	_, aliased := provinceAliasByKey[key]
	return ValidationResult{
		Address:         Canonicalize(a),
		ProvinceKnown:   known || aliased,
		ProvinceAliased: aliased,
	}
}
