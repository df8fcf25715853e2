package spherical2images

// This package defines common methods and operations for clipping spherical (equirectangular) street-level images in to cubemap face tiles and associating those tiles with the GeoJSON Feature records that reference them. Common operations include: Fetching images, converting images, extracting faces, cleaning intermediates and correcting lens distortion.
