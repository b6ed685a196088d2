package mysql

import "Kampung_Community/internal/model"

type district struct {
	no       int
	sectors  []string
	location string
	region   string
}

// 新加坡 28 个邮区及其邮编前两位
var districts = []district{
	{1, []string{"01", "02", "03", "04", "05", "06"}, "Raffles Place, Cecil, Marina, People's Park", "Central"},
	{2, []string{"07", "08"}, "Anson, Tanjong Pagar", "Central"},
	{3, []string{"14", "15", "16"}, "Queenstown, Tiong Bahru", "Central"},
	{4, []string{"09", "10"}, "Telok Blangah, Harbourfront", "Central"},
	{5, []string{"11", "12", "13"}, "Pasir Panjang, Hong Leong Garden, Clementi New Town", "West"},
	{6, []string{"17"}, "High Street, Beach Road", "Central"},
	{7, []string{"18", "19"}, "Middle Road, Golden Mile", "Central"},
	{8, []string{"20", "21"}, "Little India", "Central"},
	{9, []string{"22", "23"}, "Orchard, Cairnhill, River Valley", "Central"},
	{10, []string{"24", "25", "26", "27"}, "Ardmore, Bukit Timah, Holland Road, Tanglin", "Central"},
	{11, []string{"28", "29", "30"}, "Watten Estate, Novena, Thomson", "Central"},
	{12, []string{"31", "32", "33"}, "Balestier, Toa Payoh, Serangoon", "Central"},
	{13, []string{"34", "35", "36", "37"}, "Macpherson, Braddell", "Central"},
	{14, []string{"38", "39", "40", "41"}, "Geylang, Eunos", "East"},
	{15, []string{"42", "43", "44", "45"}, "Katong, Joo Chiat, Amber Road", "East"},
	{16, []string{"46", "47", "48"}, "Bedok, Upper East Coast, Eastwood, Kew Drive", "East"},
	{17, []string{"49", "50", "81"}, "Loyang, Changi", "East"},
	{18, []string{"51", "52"}, "Tampines, Pasir Ris", "East"},
	{19, []string{"53", "54", "55", "82"}, "Serangoon Garden, Hougang, Punggol", "North-East"},
	{20, []string{"56", "57"}, "Bishan, Ang Mo Kio", "North-East"},
	{21, []string{"58", "59"}, "Upper Bukit Timah, Clementi Park, Ulu Pandan", "West"},
	{22, []string{"60", "61", "62", "63", "64"}, "Jurong", "West"},
	{23, []string{"65", "66", "67", "68"}, "Hillview, Dairy Farm, Bukit Panjang, Choa Chu Kang", "West"},
	{24, []string{"69", "70", "71"}, "Lim Chu Kang, Tengah", "West"},
	{25, []string{"72", "73"}, "Kranji, Woodgrove", "North"},
	{26, []string{"77", "78"}, "Upper Thomson, Springleaf", "North"},
	{27, []string{"75", "76"}, "Yishun, Sembawang", "North"},
	{28, []string{"79", "80"}, "Seletar", "North-East"},
}

// DefaultSectors 展开为逐个邮编前缀
func DefaultSectors() []model.PostalSector {
	var out []model.PostalSector
	for _, d := range districts {
		for _, s := range d.sectors {
			out = append(out, model.PostalSector{
				Sector:   s,
				District: d.no,
				Location: d.location,
				Region:   d.region,
			})
		}
	}
	return out
}
