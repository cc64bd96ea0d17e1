package describer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sort"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mikesvoboda/foscam-ingest/internal/describer/videoframe"
)

// cocoToLabel maps the SSD-MobileNet COCO class indices this model was
// trained on to the plain-English object names alert keyword matching
// (internal/alerts) expects to see inside a description string. Carried
// over from the ai-service's mock detector, which used the same table to
// describe what a real model would eventually return.
var cocoToLabel = map[int64]string{
	1:  "person",
	2:  "bicycle",
	3:  "car",
	4:  "motorcycle",
	6:  "bus",
	8:  "truck",
	16: "bird",
	17: "cat",
	18: "dog",
	27: "bag",
	31: "bag",
}

const (
	inputWidth  = 300
	inputHeight = 300
	scoreFloor  = 0.45
)

// Onnx is the production Describer: a single SSD-MobileNet-style object
// detector loaded once at startup and invoked under the caller's
// describer-serializer lock (see Serializing). It never runs two
// inferences concurrently itself — that guarantee lives one layer up —
// but it does serialize session creation via initOnce.
type Onnx struct {
	session   *ort.AdvancedSession
	input     *ort.Tensor[float32]
	output    *ort.Tensor[float32]
	video     *videoframe.Extractor
	modelPath string

	initOnce sync.Once
	initErr  error
}

// NewOnnx prepares a detector bound to modelPath. The ONNX Runtime session
// itself is not created until the first DescribeImage/DescribeVideo call,
// so a misconfigured model path fails the first request rather than
// startup — mirroring the ai-service's lazy InitDetector check.
func NewOnnx(modelPath string, video *videoframe.Extractor) *Onnx {
	return &Onnx{modelPath: modelPath, video: video}
}

func (o *Onnx) ensureSession() error {
	o.initOnce.Do(func() {
		if err := ort.InitializeEnvironment(); err != nil {
			o.initErr = fmt.Errorf("onnx: initialize runtime: %w", err)
			return
		}

		inputShape := ort.NewShape(1, 3, inputHeight, inputWidth)
		input, err := ort.NewEmptyTensor[float32](inputShape)
		if err != nil {
			o.initErr = fmt.Errorf("onnx: allocate input tensor: %w", err)
			return
		}

		outputShape := ort.NewShape(1, 100, 7)
		output, err := ort.NewEmptyTensor[float32](outputShape)
		if err != nil {
			o.initErr = fmt.Errorf("onnx: allocate output tensor: %w", err)
			return
		}

		session, err := ort.NewAdvancedSession(o.modelPath,
			[]string{"image_tensor"}, []string{"detection_out"},
			[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}, nil)
		if err != nil {
			o.initErr = fmt.Errorf("onnx: create session: %w", err)
			return
		}

		o.input = input
		o.output = output
		o.session = session
	})
	return o.initErr
}

// DescribeImage runs detection over a single JPEG frame.
func (o *Onnx) DescribeImage(ctx context.Context, data []byte) (*ImageDescription, error) {
	if err := o.ensureSession(); err != nil {
		return nil, &TransientError{Err: err}
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("onnx: decode jpeg: %w", err)
	}

	if err := fillInputTensor(o.input, img); err != nil {
		return nil, fmt.Errorf("onnx: prepare input: %w", err)
	}

	if err := o.session.Run(); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("onnx: run session: %w", err)}
	}

	objects := decodeDetections(o.output.GetData())
	bounds := img.Bounds()

	return &ImageDescription{
		Aspects:    buildAspects(objects, img),
		Caption:    captionFrom(objects),
		Confidence: topConfidence(objects),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	}, nil
}

// DescribeVideo extracts a representative thumbnail via ffmpeg and
// describes it as a single-instant timeline, since this model only
// classifies individual frames.
func (o *Onnx) DescribeVideo(ctx context.Context, path string) (*VideoDescription, error) {
	frame, err := o.video.Frame(ctx, path)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("onnx: extract thumbnail: %w", err)}
	}

	desc, err := o.DescribeImage(ctx, frame.JPEGBytes)
	if err != nil {
		return nil, err
	}

	eventLines := make([]string, 0, len(desc.Aspects))
	for _, aspect := range []string{AspectObjects, AspectActivities} {
		if v := desc.Aspects[aspect]; v != "" && v != "none" {
			eventLines = append(eventLines, v)
		}
	}

	return &VideoDescription{
		Timeline: []TimelineEntry{
			{TimeSeconds: 0, Text: desc.Caption},
		},
		Events:          eventLines,
		Caption:         desc.Caption,
		Confidence:      desc.Confidence,
		Width:           frame.Width,
		Height:          frame.Height,
		FrameCount:      1,
		DurationSeconds: frame.DurationSeconds,
		ThumbnailBytes:  frame.JPEGBytes,
	}, nil
}

type detectedObject struct {
	Label      string
	Confidence float64
}

func decodeDetections(raw []float32) []detectedObject {
	var objects []detectedObject
	// detection_out rows are [image_id, class_id, score, x1, y1, x2, y2].
	for i := 0; i+6 < len(raw); i += 7 {
		score := float64(raw[i+2])
		if score < scoreFloor {
			continue
		}
		classID := int64(raw[i+1])
		label, known := cocoToLabel[classID]
		if !known {
			continue
		}
		objects = append(objects, detectedObject{Label: label, Confidence: score})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Confidence > objects[j].Confidence })
	return objects
}

func buildAspects(objects []detectedObject, img image.Image) map[string]string {
	labels := make([]string, 0, len(objects))
	hasPerson, hasVehicle := false, false
	for _, o := range objects {
		labels = append(labels, o.Label)
		switch o.Label {
		case "person":
			hasPerson = true
		case "car", "truck", "bus", "motorcycle", "bicycle":
			hasVehicle = true
		}
	}

	activity := "no activity detected"
	if hasPerson && hasVehicle {
		activity = "person near vehicle"
	} else if hasPerson {
		activity = "person moving in frame"
	} else if hasVehicle {
		activity = "vehicle moving in frame"
	}

	setting := "daytime"
	if averageBrightness(img) < 60 {
		setting = "low light / night"
	}

	objectsLine := "none"
	if len(labels) > 0 {
		objectsLine = joinLabels(labels)
	}

	return map[string]string{
		AspectGeneral:     fmt.Sprintf("%d object(s) detected", len(objects)),
		AspectSecurity:    activity,
		AspectObjects:     objectsLine,
		AspectActivities:  activity,
		AspectEnvironment: setting,
	}
}

func captionFrom(objects []detectedObject) string {
	if len(objects) == 0 {
		return "no objects detected"
	}
	return fmt.Sprintf("detected %s", joinLabels(labelsOf(objects)))
}

func topConfidence(objects []detectedObject) float64 {
	if len(objects) == 0 {
		return 0
	}
	return objects[0].Confidence
}

func labelsOf(objects []detectedObject) []string {
	labels := make([]string, len(objects))
	for i, o := range objects {
		labels[i] = o.Label
	}
	return labels
}

func joinLabels(labels []string) string {
	seen := make(map[string]bool, len(labels))
	var unique []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	out := unique[0]
	for _, l := range unique[1:] {
		out += ", " + l
	}
	return out
}

// fillInputTensor resizes img to the model's fixed input size and writes
// normalized CHW float32 data into tensor, the layout ONNX image models
// trained on ImageNet-style preprocessing expect.
func fillInputTensor(tensor *ort.Tensor[float32], img image.Image) error {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return fmt.Errorf("zero-sized image")
	}

	data := tensor.GetData()
	plane := inputWidth * inputHeight

	for y := 0; y < inputHeight; y++ {
		srcY := bounds.Min.Y + (y*srcH)/inputHeight
		for x := 0; x < inputWidth; x++ {
			srcX := bounds.Min.X + (x*srcW)/inputWidth
			r, g, b, _ := img.At(srcX, srcY).RGBA()

			idx := y*inputWidth + x
			data[idx] = float32(r>>8) / 255.0
			data[plane+idx] = float32(g>>8) / 255.0
			data[2*plane+idx] = float32(b>>8) / 255.0
		}
	}
	return nil
}

func averageBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	var sum float64
	var count int
	step := 8
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			count++
		}
	}
	if count == 0 {
		return 255
	}
	return sum / float64(count)
}

// Close releases the ONNX Runtime session. Safe to call on a Describer
// that was never actually invoked.
func (o *Onnx) Close() error {
	if o.session == nil {
		return nil
	}
	return o.session.Destroy()
}
