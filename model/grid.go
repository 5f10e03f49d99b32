package model

// GridSize 数独边长
const GridSize = 9

// Grid 9x9 数字矩阵，0 表示空格或未识别
type Grid [][]int

// NewGrid 创建全 0 的网格
func NewGrid() Grid {
	g := make(Grid, GridSize)
	for i := range g {
		g[i] = make([]int, GridSize)
	}
	return g
}

// Clone 深拷贝
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]int(nil), row...)
	}
	return out
}

var sampleGrid = Grid{
	{5, 3, 0, 0, 7, 0, 0, 0, 0},
	{6, 0, 0, 1, 9, 5, 0, 0, 0},
	{0, 9, 8, 0, 0, 0, 0, 6, 0},
	{8, 0, 0, 0, 6, 0, 0, 0, 3},
	{4, 0, 0, 8, 0, 3, 0, 0, 1},
	{7, 0, 0, 0, 2, 0, 0, 0, 6},
	{0, 6, 0, 0, 0, 0, 2, 8, 0},
	{0, 0, 0, 4, 1, 9, 0, 0, 5},
	{0, 0, 0, 0, 8, 0, 0, 7, 9},
}

// SampleGrid 返回固定示例网格的副本
func SampleGrid() Grid {
	return sampleGrid.Clone()
}

// GridResponse 识别/示例接口的响应体
type GridResponse struct {
	Grid Grid `json:"grid" validate:"required,len=9,dive,len=9,dive,min=0,max=9"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}
