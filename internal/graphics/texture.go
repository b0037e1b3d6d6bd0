package graphics

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io/fs"
	"log/slog"

	"github.com/go-gl/gl/v4.6-core/gl"
	"golang.org/x/image/draw"
)

// fallbackColors tint layers whose image is missing, so each material stays
// distinguishable.
var fallbackColors = []color.RGBA{
	{95, 159, 53, 255},   // grass
	{134, 96, 67, 255},   // dirt
	{125, 125, 125, 255}, // stone
	{40, 40, 40, 255},    // bedrock
	{219, 207, 163, 255}, // sand
	{240, 251, 251, 255}, // snow
}

// LoadLayers decodes one image per path and scales each to size x size.
// Paths that are missing or undecodable get a flat colour layer and a
// warning instead of failing the whole array.
func LoadLayers(fsys fs.FS, paths []string, size int, logger *slog.Logger) []*image.RGBA {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	layers := make([]*image.RGBA, len(paths))
	for i, p := range paths {
		img, err := decodeImage(fsys, p)
		if err != nil {
			logger.Warn("texture unavailable, using flat colour", "path", p, "err", err)
			layers[i] = flatLayer(size, fallbackColors[i%len(fallbackColors)])
			continue
		}
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		layers[i] = dst
	}
	return layers
}

func decodeImage(fsys fs.FS, path string) (image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func flatLayer(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// LoadTextureArray uploads the textures for paths into a GL_TEXTURE_2D_ARRAY,
// layer i holding material i+1.
func LoadTextureArray(fsys fs.FS, paths []string, size int, logger *slog.Logger) (uint32, error) {
	if len(paths) == 0 {
		return 0, fmt.Errorf("graphics: no block textures")
	}
	layers := LoadLayers(fsys, paths, size, logger)

	var texture uint32
	gl.CreateTextures(gl.TEXTURE_2D_ARRAY, 1, &texture)
	levels := int32(1)
	for s := size; s > 1; s >>= 1 {
		levels++
	}
	gl.TextureStorage3D(texture, levels, gl.RGBA8, int32(size), int32(size), int32(len(layers)))
	for i, img := range layers {
		gl.TextureSubImage3D(texture, 0, 0, 0, int32(i), int32(size), int32(size), 1,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}

	gl.TextureParameteri(texture, gl.TEXTURE_MIN_FILTER, gl.NEAREST_MIPMAP_LINEAR)
	gl.TextureParameteri(texture, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TextureParameteri(texture, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TextureParameteri(texture, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.GenerateTextureMipmap(texture)

	var maxAnisotropy float32
	gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &maxAnisotropy)
	if maxAnisotropy > 0 {
		gl.TextureParameterf(texture, gl.TEXTURE_MAX_ANISOTROPY, maxAnisotropy)
	}

	if logger != nil {
		logger.Info("block textures loaded", "layers", len(layers), "size", size)
	}
	return texture, nil
}
