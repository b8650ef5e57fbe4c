package core

// defaultTaxonomy is the road-works taxonomy a new log starts with.
var defaultTaxonomy = []CategoryNode{
	{Name: "道路工程", SubCategories: []string{"上面层", "下面层", "基层", "底基层", "路床", "路肩"}},
	{Name: "标牌", SubCategories: []string{"立杆", "基础", "标牌板面", "龙门架"}},
	{Name: "休息区", SubCategories: []string{"油面", "厕所", "路灯", "停车场", "服务楼"}},
	{Name: "人行道", SubCategories: []string{"路缘石", "透水砖", "盲道", "树池"}},
	{Name: "护栏", SubCategories: []string{"波形护栏", "混凝土护栏", "防眩板"}},
	{Name: "涵洞", SubCategories: []string{"圆管涵", "盖板涵", "箱涵", "洞口工程"}},
	{Name: "桥梁", SubCategories: []string{"桩基", "墩柱", "盖梁", "梁板安装", "桥面铺装"}},
}

// LocationPresets are the carriageway sections offered when typing a location.
var LocationPresets = []string{
	"左幅",
	"右幅",
	"全幅",
	"中央分隔带",
	"互通匝道",
	"连接线",
	"K0+000-K5+000",
	"K5+000-K10+000",
}

// DefaultCategoryTree returns a fresh copy of the seed taxonomy.
func DefaultCategoryTree() *CategoryTree {
	t, err := NewCategoryTreeFrom(defaultTaxonomy)
	if err != nil {
		// the seed is a constant; a failure here is a programming error
		panic(err)
	}
	return t
}

// SampleEntries returns two demonstration entries dated day.
func SampleEntries(day Date) []Entry {
	return []Entry{
		{
			ID:          "init-1",
			Date:        day,
			Category:    "道路工程",
			SubCategory: "上面层",
			Location:    "左幅 K2+300-K2+800",
			Description: "沥青摊铺施工",
			Amount:      500,
			Status:      StatusCompleted,
			Notes:       "温度符合要求，压实度合格",
			Resources: []Resource{
				{Kind: Personnel, Name: "摊铺工", Count: 12, Unit: "人"},
				{Kind: Machinery, Name: "摊铺机", Count: 2, Unit: "台"},
			},
			Photos: []string{},
		},
		{
			ID:          "init-2",
			Date:        day,
			Category:    "标牌",
			SubCategory: "基础",
			Location:    "右幅 K5+100",
			Description: "单柱式标志基础浇筑",
			Amount:      2,
			Status:      StatusUnderReview,
			Notes:       "等待混凝土强度报告",
			Resources:   []Resource{},
			Photos:      []string{},
		},
	}
}
