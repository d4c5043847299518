package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, RunResult, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (실행 순서):
//   S1 → S0 → S2 → S3 → S4
//   Universe  Data  Signals  Screener  Publish

// Stage represents a pipeline stage
type Stage string

const (
	// StageUniverse S1: 구성 종목 확정
	// 책임: Wikipedia/파일에서 구성 종목 로드, 중복/빈 심볼 제외
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageData S0: 시세/펀더멘털/가격 히스토리 수집
	// 책임: Yahoo 수집, 적격성(EQUITY, 장외 제외) 검사, 실패 종목 드롭
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageSignals S2: 지표 계산 및 정규화
	// 책임: RSI(14), SMA(200), 52주 고점 대비, 레코드 정규화
	// 위치: internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageScreener S3: 섹터 기준선 + 8개 필터 판정
	// 위치: internal/selection/
	StageScreener Stage = "S3_SCREENER"

	// StagePublish S4: 리포트 저장 및 전파
	// 책임: JSON/CSV 파일, Postgres, websocket 구독자
	// 위치: internal/export/, internal/selection/repository.go
	StagePublish Stage = "S4_PUBLISH"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageSignals:
		return "S2"
	case StageScreener:
		return "S3"
	case StagePublish:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "데이터 수집"
	case StageUniverse:
		return "구성 종목"
	case StageSignals:
		return "지표 계산/정규화"
	case StageScreener:
		return "필터 판정"
	case StagePublish:
		return "리포트 저장/전파"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageUniverse,
		StageData,
		StageSignals,
		StageScreener,
		StagePublish,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
