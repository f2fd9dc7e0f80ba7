package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karenhance/restored/internal/analysis"
	"github.com/karenhance/restored/internal/audio"
	"github.com/karenhance/restored/internal/bandplan"
	"github.com/karenhance/restored/internal/matrix"
	"github.com/karenhance/restored/internal/post"
	"github.com/karenhance/restored/internal/session"
	"github.com/karenhance/restored/internal/spectral"
	"github.com/karenhance/restored/internal/types"
	"github.com/karenhance/restored/internal/viz"
)

const (
	heatmapColumns    = 800
	waveformPeakCount = 800
)

// Pipeline is the library's external entry point: the two restoration
// operations (analyze, process), wiring session, analysis, spectral, post,
// and audio together behind a single Worker so callers never touch the
// DSP core packages directly.
type Pipeline struct {
	store  *session.Store
	dec    *audio.Decoder
	worker *Worker
}

// NewPipeline builds a Pipeline over an already-initialized store and
// decoder.
func NewPipeline(store *session.Store, dec *audio.Decoder) *Pipeline {
	return &Pipeline{store: store, dec: dec, worker: New()}
}

// Progress returns sessionID's current job progress, or -1 if idle.
func (p *Pipeline) Progress(sessionID string) int {
	return p.worker.Progress(sessionID)
}

// Analyze runs the Vocal or Mix Analyzer (selected by req.Mode) over the
// session's previously saved reference/instrumental files, persists the
// result, and returns a rendering-ready response.
func (p *Pipeline) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResponse, error) {
	if err := req.Validate(); err != nil {
		return types.AnalysisResponse{}, err
	}

	vocalPath, err := p.store.FindReference(req.SessionID, "vocal")
	if err != nil {
		return types.AnalysisResponse{}, err
	}
	instPath, err := p.store.FindReference(req.SessionID, "instrumental")
	if err != nil {
		return types.AnalysisResponse{}, err
	}

	var (
		m          *matrix.Matrix
		frameTimes []float64
		plan       *bandplan.Plan
	)
	job := Job{
		SessionID: req.SessionID,
		Kind:      JobAnalyze,
		Run: func(ctx context.Context, progress func(int)) error {
			if req.Mode == types.ModeMix {
				res, err := analysis.AnalyzeMix(ctx, p.dec, vocalPath, instPath, req.BandCount, progress)
				if err != nil {
					return err
				}
				m, frameTimes, plan = res.GainRatio, res.FrameTimes, res.Plan
				return nil
			}
			res, err := analysis.AnalyzeVocal(ctx, p.dec, vocalPath, req.Sensitivity, req.BandCount, progress)
			if err != nil {
				return err
			}
			m, frameTimes, plan = res.Intensity, res.FrameTimes, res.Plan
			return nil
		},
	}
	if err := p.worker.Start(ctx, job); err != nil {
		return types.AnalysisResponse{}, err
	}

	if err := p.store.SavePersisted(req.SessionID, req.Mode, m, frameTimes, plan.Bands); err != nil {
		return types.AnalysisResponse{}, err
	}

	heatmap, heatmapTimes := viz.DownsampleHeatmap(m, frameTimes, heatmapColumns, req.Mode)
	refPeaks, err := viz.WaveformPeaks(ctx, p.dec, vocalPath, waveformPeakCount)
	if err != nil {
		return types.AnalysisResponse{}, err
	}
	instPeaks, err := viz.WaveformPeaks(ctx, p.dec, instPath, waveformPeakCount)
	if err != nil {
		return types.AnalysisResponse{}, err
	}
	duration, err := p.dec.Duration(ctx, instPath)
	if err != nil {
		return types.AnalysisResponse{}, err
	}

	return types.AnalysisResponse{
		SessionID:         req.SessionID,
		Duration:          duration.Seconds(),
		SampleRate:        analysis.AnalysisSampleRate,
		NBands:            req.BandCount,
		NFrames:           m.Frames,
		HopSeconds:        float64(analysis.Hop) / float64(analysis.AnalysisSampleRate),
		Bands:             plan.Bands,
		IntensityHeatmap:  matrixToRows(heatmap),
		HeatmapTimes:      heatmapTimes,
		ReferencePeaks:    refPeaks,
		InstrumentalPeaks: instPeaks,
		Mode:              req.Mode.String(),
	}, nil
}

// Process loads a session's persisted analysis (recomputing it from the
// saved reference if the artifacts are missing but the reference survives),
// then runs the Spectral Processor and Post Conditioner over the
// instrumental and writes the restored output into the session directory.
func (p *Pipeline) Process(ctx context.Context, req types.ProcessRequest) (types.ProcessResponse, error) {
	if err := req.Validate(); err != nil {
		return types.ProcessResponse{}, err
	}

	instPath, err := p.store.FindReference(req.SessionID, "instrumental")
	if err != nil {
		return types.ProcessResponse{}, err
	}

	persisted, err := p.store.LoadPersisted(req.SessionID)
	if err == session.ErrReanalyzeRequired {
		if _, aerr := p.Analyze(ctx, types.AnalysisRequest{
			SessionID:   req.SessionID,
			Mode:        req.Mode,
			Sensitivity: req.Sensitivity,
			BandCount:   req.BandCount,
		}); aerr != nil {
			return types.ProcessResponse{}, aerr
		}
		persisted, err = p.store.LoadPersisted(req.SessionID)
	}
	if err != nil {
		return types.ProcessResponse{}, err
	}

	var outputName string
	job := Job{
		SessionID: req.SessionID,
		Kind:      JobProcess,
		Run: func(ctx context.Context, progress func(int)) error {
			name, err := p.runProcess(ctx, req, instPath, persisted, progress)
			outputName = name
			return err
		},
	}
	if err := p.worker.Start(ctx, job); err != nil {
		return types.ProcessResponse{}, err
	}

	dir, err := p.store.SessionDir(req.SessionID)
	if err != nil {
		return types.ProcessResponse{}, err
	}
	duration, err := p.dec.Duration(ctx, filepath.Join(dir, outputName))
	if err != nil {
		return types.ProcessResponse{}, err
	}

	return types.ProcessResponse{
		SessionID:      req.SessionID,
		OutputFilename: outputName,
		Duration:       duration.Seconds(),
	}, nil
}

// runProcess carries out the Spectral Processor and Post Conditioner
// stages, reporting progress at fixed milestones:
// 5/10/15/20/45 (or 70 for mono)/70/80/90/95/100.
func (p *Pipeline) runProcess(ctx context.Context, req types.ProcessRequest, instPath string, persisted *session.Persisted, progress func(int)) (string, error) {
	channels, sr, err := p.dec.DecodeMulti(ctx, instPath)
	if err != nil {
		return "", err
	}
	if len(channels) == 0 || len(channels[0]) == 0 {
		return "", fmt.Errorf("%w: empty instrumental track", audio.ErrEmptyAudio)
	}
	progress(5)

	mode := persisted.Mode
	engine := spectral.NewEngine(analysis.FFTSize, analysis.Hop)
	nFrames := engine.NumFrames(len(channels[0]))
	targetFrameTimes := make([]float64, nFrames)
	for i := range targetFrameTimes {
		targetFrameTimes[i] = float64(i*analysis.Hop) / float64(sr)
	}
	progress(10)

	interp := spectral.Interpolate(persisted.Intensity, persisted.FrameTimes, targetFrameTimes, mode)
	gain := spectral.BuildGainMatrix(interp, req.EQLevel, persisted.Bands, mode)
	progress(15)

	groups := spectral.BandGroupsForSampleRate(&bandplan.Plan{Bands: persisted.Bands}, analysis.FFTSize, sr)
	bg := spectral.BuildBinGainMatrix(gain, groups, spectral.NyquistBins(analysis.FFTSize))
	progress(20)

	for c := range channels {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// eq_level 0 is a bypass: skip the STFT round trip so the channel
		// stays bit-exact.
		if req.EQLevel != 0 {
			out, err := spectral.ApplyGain(ctx, engine, channels[c], bg)
			if err != nil {
				return "", err
			}
			channels[c] = out
		}
		if len(channels) == 2 && c == 0 {
			progress(45)
		} else {
			progress(70)
		}
	}

	if req.StereoWiden && len(channels) == 2 {
		widenSamples := widenIntensitySamples(bg, targetFrameTimes, len(channels[0]), sr)
		channels[0], channels[1] = post.WidenStereo(channels[0], channels[1], widenSamples)
	}
	progress(80)

	post.ClipGuard(channels)
	post.Normalize(channels, req.Normalization)
	progress(90)

	dir, err := p.store.SessionDir(req.SessionID)
	if err != nil {
		return "", err
	}
	instExt := strings.ToLower(filepath.Ext(instPath))
	outputName := fmt.Sprintf("enhanced_%s%s", req.SessionID, instExt)
	outputPath := filepath.Join(dir, outputName)

	needsEncode := instExt != ".wav"
	wavPath := outputPath
	if needsEncode {
		wavPath = outputPath + ".tmp.wav"
	}
	if err := audio.WriteWAV(wavPath, channels, sr); err != nil {
		return "", err
	}
	progress(95)

	if needsEncode {
		if err := p.dec.EncodeTo(ctx, wavPath, outputPath, instExt, instPath); err != nil {
			return "", err
		}
		os.Remove(wavPath)
	}
	progress(100)

	return outputName, nil
}

// widenIntensitySamples rebuilds a lightweight per-sample widen curve from
// the already-computed bin gain: the max gain across bins in a frame marks
// how active restoration is there, normalized against the loudest frame and
// upsampled to sample rate with edge-clamped linear interpolation.
func widenIntensitySamples(bg *spectral.BinGainMatrix, frameTimes []float64, nSamples, sampleRate int) []float64 {
	maxPerFrame := make([]float64, bg.Frames)
	var globalMax float64
	for f := 0; f < bg.Frames; f++ {
		var m float64
		for bin := 0; bin < bg.Bins; bin++ {
			if v := bg.Data[bin][f]; v > m {
				m = v
			}
		}
		maxPerFrame[f] = m
		if m > globalMax {
			globalMax = m
		}
	}
	widen := make([]float64, bg.Frames)
	for f, m := range maxPerFrame {
		widen[f] = clip01((m - 1.0) / (globalMax - 1.0 + 1e-8))
	}

	samples := make([]float64, nSamples)
	for i := range samples {
		samples[i] = interpClamp(frameTimes, widen, float64(i)/float64(sampleRate))
	}
	return samples
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// interpClamp mirrors numpy.interp: values outside [xs[0], xs[last]] clamp
// to the nearest endpoint rather than filling a constant, since the widen
// curve has no meaningful "outside the track" value.
func interpClamp(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	frac := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + frac*(ys[hi]-ys[lo])
}

func matrixToRows(m *matrix.Matrix) [][]float64 {
	rows := make([][]float64, m.Bands)
	for b := range rows {
		row := m.Row(b)
		cp := make([]float64, len(row))
		copy(cp, row)
		rows[b] = cp
	}
	return rows
}
