package export

const (
	FormatEDL        = "edl"
	DefaultFrameRate = 30.0
	DefaultProject   = "bunpeg_export"
)

// Request is the body of an export call. Keep ranges come from the session,
// not the caller.
type Request struct {
	ProjectName string  `json:"project_name"`
	Format      string  `json:"format"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

// Clip is one keep range of a source file, in seconds.
type Clip struct {
	Name      string
	MediaPath string
	Start     float64
	End       float64
}

type Response struct {
	Status     string  `json:"status"`
	Format     string  `json:"format"`
	OutputPath string  `json:"output_path"`
	ClipCount  int     `json:"clip_count"`
	Duration   float64 `json:"duration"`
}
