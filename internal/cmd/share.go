package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mailbox"
	wgpubackend "github.com/gogpu/mailbox/backend/wgpu"
	"github.com/gogpu/mailbox/bitmap"
	"github.com/gogpu/mailbox/internal/config"
	"github.com/gogpu/mailbox/texture"
)

var shareCmd = &cobra.Command{
	Use:   "share <image>...",
	Short: "Share decoded images from a producer to a consumer through mailboxes",
	Long: `Decode each image, upload it into a texture owned by a producer context
group, produce the texture under a fresh mailbox, and consume the mailbox
from a second context group that shares the registry.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShare,
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.Flags().Int("max-size", 0, "scale images down to fit this many pixels per side (0 = no limit)")
	shareCmd.Flags().Bool("verify", false, "compare consumed texture contents with the source pixels (software allocator only)")
}

func runShare(cmd *cobra.Command, args []string) error {
	maxSize, _ := cmd.Flags().GetInt("max-size")
	verify, _ := cmd.Flags().GetBool("verify")

	alloc, release, err := openAllocator(appConfig.Texture.Allocator)
	if err != nil {
		return err
	}
	defer release()

	report, err := share(appConfig, alloc, args, shareOptions{maxSize: maxSize, verify: verify})
	if err != nil {
		return err
	}
	return report.write(cmd.OutOrStdout())
}

// openAllocator returns the texture allocator named by the configuration
// and a function releasing any device it opened.
func openAllocator(name string) (texture.Allocator, func(), error) {
	name = strings.ToLower(name)
	switch name {
	case "software":
		return texture.SoftwareAllocator{}, func() {}, nil
	case "wgpu", "auto":
		dev, err := wgpubackend.OpenDevice("mailboxctl")
		if err != nil {
			if name == "wgpu" {
				return nil, nil, err
			}
			mailbox.Logger().Warn("no GPU device, using software textures", "err", err)
			return texture.SoftwareAllocator{}, func() {}, nil
		}
		return wgpubackend.NewAllocator(dev.Device()), dev.Release, nil
	default:
		return nil, nil, fmt.Errorf("unknown allocator %q", name)
	}
}

type shareOptions struct {
	maxSize int
	verify  bool
}

type shareEntry struct {
	path     string
	format   string
	bitmap   string
	opaque   bool
	mailbox  mailbox.Mailbox
	texture  texture.ID
	bytes    uint64
	verified string
}

type shareReport struct {
	allocator string
	target    mailbox.Target
	entries   []shareEntry
	registry  mailbox.RegistryStats
	producer  texture.Stats
	pool      bitmap.PoolStats
}

// share runs the producer/consumer handoff for every image.
func share(cfg *config.Config, alloc texture.Allocator, paths []string, opts shareOptions) (*shareReport, error) {
	target, err := cfg.Texture.SharingTarget()
	if err != nil {
		return nil, err
	}

	reg := mailbox.NewRegistry()
	defer reg.Release()

	groupOpts := []mailbox.GroupOption{
		mailbox.WithRegistry(reg),
		mailbox.WithTextureBudget(cfg.Texture.BudgetMB),
		mailbox.WithAllocator(alloc),
	}
	producerGroup := mailbox.NewGroup(groupOpts...)
	defer producerGroup.Release()
	consumerGroup := mailbox.NewGroup(groupOpts...)
	defer consumerGroup.Release()

	producer := producerGroup.NewContext()
	defer producer.Close()
	consumer := consumerGroup.NewContext()
	defer consumer.Close()

	pool := bitmap.NewPool(cfg.Bitmap.PoolBudgetMB << 20)
	report := &shareReport{allocator: alloc.Name(), target: target}

	var bitmaps []bitmap.Bitmap
	defer func() {
		for i := range bitmaps {
			bitmaps[i].Release()
		}
	}()

	for _, path := range paths {
		img, format, err := decodeFile(path, opts.maxSize)
		if err != nil {
			return nil, err
		}
		bmp, err := newBitmap(pool, img)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		bitmaps = append(bitmaps, bmp)

		entry, err := handoff(producer, consumer, target, bmp, opts.verify)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		entry.path = path
		entry.format = format
		report.entries = append(report.entries, entry)
	}

	report.registry = reg.Stats()
	report.producer = producerGroup.Textures().Stats()
	report.pool = pool.Stats()
	return report, nil
}

// newBitmap wraps img's pixels in storage without copying. The storage is
// discardable unless it alone exceeds the pool budget, which would purge
// it before it could be uploaded.
func newBitmap(pool *bitmap.Pool, img *image.RGBA) (bitmap.Bitmap, error) {
	var st *bitmap.Storage
	if budget := pool.Stats().Budget; budget > 0 && len(img.Pix) > budget {
		mailbox.Logger().Debug("image exceeds pixel pool budget, not discardable",
			"bytes", len(img.Pix), "budget", budget)
		st = bitmap.NewStorage(img.Pix)
	} else {
		st = pool.NewStorage(img.Pix)
	}
	st.SetImmutable()
	defer st.Unref()

	size := bitmap.Size{Width: img.Rect.Dx(), Height: img.Rect.Dy()}
	return bitmap.CreateWithOpacity(st, size, bitmap.FormatRGBA8, img.Opaque())
}

// handoff uploads bmp in the producer, shares it by mailbox and consumes
// it in the consumer.
func handoff(producer, consumer *mailbox.Context, target mailbox.Target, bmp bitmap.Bitmap, verify bool) (shareEntry, error) {
	tex, err := producer.CreateTextureFromBitmap(target, bmp)
	if err != nil {
		return shareEntry{}, err
	}
	name, err := producer.GenMailbox()
	if err != nil {
		return shareEntry{}, err
	}
	if err := producer.ProduceTexture(target, name, tex); err != nil {
		return shareEntry{}, err
	}

	got, ok := consumer.ConsumeTexture(target, name)
	if !ok {
		return shareEntry{}, fmt.Errorf("mailbox %s not available to consumer", name.Short())
	}
	if got != tex {
		return shareEntry{}, errors.New("consumer received a different texture")
	}

	entry := shareEntry{
		bitmap:  bmp.String(),
		opaque:  bmp.Opaque(),
		mailbox: name,
		texture: got.ID(),
		bytes:   got.SizeBytes(),
	}
	if verify {
		entry.verified, err = verifyContents(got, bmp)
		if err != nil {
			return shareEntry{}, err
		}
	}
	return entry, nil
}

// verifyContents compares a software texture with the bitmap's pixels.
func verifyContents(tex *texture.Texture, bmp bitmap.Bitmap) (string, error) {
	sb, ok := tex.Backing().(*texture.SoftwareBacking)
	if !ok {
		return "n/a", nil
	}
	result := "ok"
	err := bitmap.WithPixels(bmp, func(px []byte) error {
		if !bytes.Equal(sb.Bytes(), px) {
			result = "MISMATCH"
		}
		return nil
	})
	return result, err
}

func (r *shareReport) write(w io.Writer) error {
	p := message.NewPrinter(language.English)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tFORMAT\tBITMAP\tOPAQUE\tMAILBOX\tTEXTURE\tBYTES\tVERIFIED")
	for _, e := range r.entries {
		verified := e.verified
		if verified == "" {
			verified = "-"
		}
		p.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\t%d\t%s\n",
			e.path, e.format, e.bitmap, e.opaque, e.mailbox.Short(), e.texture, e.bytes, verified)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p.Fprintf(w, "\nshared %d images as %v textures (%s allocator)\n", len(r.entries), r.target, r.allocator)
	p.Fprintf(w, "textures: %d live, %d bytes\n", r.producer.Live, r.producer.UsedBytes)
	p.Fprintf(w, "registry: %d bindings, %d hits, %d misses\n", r.registry.Bindings, r.registry.Hits, r.registry.Misses)
	p.Fprintf(w, "pixel pool: %d storages, %d bytes, %d purged\n", r.pool.Len, r.pool.UsedBytes, r.pool.Purged)
	return nil
}
