// internal/scoring/leadfit/tables.go
package leadfit

import "strings"

// industryRelations maps an industry label to labels considered adjacent.
// Both Chinese and English labels appear because the dashboard stores whatever
// the discovery pipeline scraped.
var industryRelations = map[string][]string{
	"科技":         {"互联网", "软件", "人工智能", "大数据"},
	"互联网":        {"科技", "软件", "电商", "人工智能"},
	"软件":         {"科技", "互联网", "人工智能", "云计算"},
	"制造":         {"工业", "机械", "电子", "汽车"},
	"金融":         {"银行", "保险", "证券", "投资"},
	"电商":         {"互联网", "零售", "物流"},
	"医疗":         {"健康", "生物科技", "制药"},
	"教育":         {"培训", "在线教育", "科技"},
	"technology": {"internet", "software", "ai", "big data"},
	"internet":   {"technology", "software", "e-commerce", "ai"},
	"software":   {"technology", "internet", "ai", "cloud"},
	"finance":    {"banking", "insurance", "investment"},
	"healthcare": {"health", "biotech", "pharmaceutical"},
	"retail":     {"e-commerce", "consumer", "logistics"},
}

// cityClusters groups locations that sales treats as one territory.
var cityClusters = [][]string{
	{"北京", "天津", "河北", "beijing", "tianjin", "hebei"},
	{"上海", "江苏", "浙江", "苏州", "杭州", "shanghai", "jiangsu", "zhejiang", "hangzhou", "suzhou"},
	{"广州", "深圳", "东莞", "佛山", "珠海", "guangzhou", "shenzhen", "dongguan", "foshan"},
	{"成都", "重庆", "chengdu", "chongqing"},
}

// sizeBuckets is the fixed ordering used for bucket-distance scoring.
var sizeBuckets = []string{"1-10人", "11-50人", "51-200人", "201-500人", "500人以上"}

// sizeAliases maps alternate spellings onto the bucket indexes.
var sizeAliases = map[string]int{
	"1-10":   0,
	"11-50":  1,
	"51-200": 2,
	"201-500": 3,
	"500+":    4,
	"500以上":  4,
}

// bucketIndex resolves a company-size label to its bucket position, -1 when the
// label is not one of the known buckets.
func bucketIndex(size string) int {
	size = strings.TrimSpace(size)
	if size == "" {
		return -1
	}
	for i, bucket := range sizeBuckets {
		if size == bucket {
			return i
		}
	}
	if idx, ok := sizeAliases[strings.ToLower(size)]; ok {
		return idx
	}
	return -1
}

// relatedIndustries returns the adjacency list for an industry label.
func relatedIndustries(industry string) []string {
	return industryRelations[strings.ToLower(strings.TrimSpace(industry))]
}

// sameCluster reports whether two locations fall into one territory cluster.
func sameCluster(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	for _, cluster := range cityClusters {
		foundA, foundB := false, false
		for _, city := range cluster {
			if strings.Contains(a, city) {
				foundA = true
			}
			if strings.Contains(b, city) {
				foundB = true
			}
		}
		if foundA && foundB {
			return true
		}
	}
	return false
}
